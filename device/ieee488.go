package device

import (
	"fmt"
	"strings"
)

// maxErrorQueueDrain caps DrainErrors so an instrument that keeps producing
// error reports cannot loop the drain forever. SCPI error queues hold at
// most a few tens of entries in practice.
const maxErrorQueueDrain = 64

// IDN queries the instrument identity (*IDN?) and returns the raw
// "<vendor>,<model>,<serial>,<firmware>" string.
func (d *Device) IDN() (string, error) {
	return d.Query("*IDN?", 0)
}

// Reset resets the instrument to factory defaults (*RST).
func (d *Device) Reset() error {
	return d.Command("*RST")
}

// ClearStatus clears the instrument status registers (*CLS).
func (d *Device) ClearStatus() error {
	return d.Command("*CLS")
}

// OPC queries operation complete (*OPC?). It returns true iff the response
// trims to "1".
func (d *Device) OPC() (bool, error) {
	resp, err := d.Query("*OPC?", 0)
	if err != nil {
		return false, err
	}

	return strings.TrimSpace(resp) == "1", nil
}

// Wait tells the instrument to finish pending operations before executing
// further commands (*WAI).
func (d *Device) Wait() error {
	return d.Command("*WAI")
}

// SelfTest runs the instrument self-test (*TST?) and returns the parsed
// integer result. Zero conventionally means pass; nonzero codes are
// instrument-specific and left to the caller to interpret.
func (d *Device) SelfTest() (int, error) {
	return d.QueryInt("*TST?", 0)
}

// SaveState saves the instrument state to internal memory slot (*SAV).
func (d *Device) SaveState(slot int) error {
	return d.Command(fmt.Sprintf("*SAV %d", slot))
}

// RecallState recalls the instrument state from internal memory slot (*RCL).
func (d *Device) RecallState(slot int) error {
	return d.Command(fmt.Sprintf("*RCL %d", slot))
}

// CheckError queries the instrument error queue (:SYST:ERR?). It returns
// the empty string when the queue is empty, meaning a response starting
// with "0," or "+0," such as "0,No error", and otherwise the raw "<code>,<message>"
// report, left unparsed. Only those two literal prefixes count as empty;
// other zero spellings are returned verbatim rather than guessed at.
func (d *Device) CheckError() (string, error) {
	resp, err := d.Query(":SYST:ERR?", 0)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(resp, "0,") || strings.HasPrefix(resp, "+0,") {
		return "", nil
	}

	return resp, nil
}

// DrainErrors repeatedly queries the error queue until the instrument
// reports it empty, returning the drained "<code>,<message>" reports in
// order. The drain stops after maxErrorQueueDrain reports even if the
// instrument keeps producing them.
func (d *Device) DrainErrors() ([]string, error) {
	var reports []string

	for i := 0; i < maxErrorQueueDrain; i++ {
		report, err := d.CheckError()
		if err != nil {
			return reports, err
		}
		if report == "" {
			return reports, nil
		}

		reports = append(reports, report)
	}

	d.logger.Warn("device: error queue drain stopped at cap", "cap", maxErrorQueueDrain)

	return reports, nil
}
