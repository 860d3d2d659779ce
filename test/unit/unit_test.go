// +build !integration

package unit

import (
	"testing"

	simctl "github.com/ehrlich-b/go-simctl"
	"github.com/ehrlich-b/go-simctl/backend"
	"github.com/ehrlich-b/go-simctl/internal/interfaces"
)

// These tests exercise the driver's public API against an in-process
// model; no network connection is made.

func TestDefaultParams(t *testing.T) {
	model := backend.NewCounterModel(8, -9)
	params := simctl.DefaultParams(model)

	if params.Port != simctl.DefaultPort {
		t.Errorf("Port = %d, want %d", params.Port, simctl.DefaultPort)
	}
	if params.TimeoutSec != simctl.DefaultTimeoutSec {
		t.Errorf("TimeoutSec = %d, want %d", params.TimeoutSec, simctl.DefaultTimeoutSec)
	}
	if params.Adapter != model {
		t.Error("Adapter not set correctly")
	}
}

func TestNewDriverRejectsNilAdapter(t *testing.T) {
	params := simctl.DriverParams{}
	if _, err := simctl.NewDriver(params, nil); err == nil {
		t.Fatal("expected an error for a nil Adapter")
	}
}

func TestDriverRegisterRejectsDuplicateNames(t *testing.T) {
	model := backend.NewCounterModel(8, -9)
	driver, err := simctl.NewDriver(simctl.DefaultParams(model), nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	if err := driver.RegisterScalar("count", model.CountHandle(), 0); err != nil {
		t.Fatalf("first RegisterScalar: %v", err)
	}
	if err := driver.RegisterScalar("count", model.CountHandle(), 0); err == nil {
		t.Fatal("expected duplicate binding name to error")
	}
}

func TestDriverRegisterArray(t *testing.T) {
	model := backend.NewCounterModel(8, -9)
	driver, err := simctl.NewDriver(simctl.DefaultParams(model), nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if err := driver.RegisterArray("mem", interfaces.NewHandle(99), 0, 16); err != nil {
		t.Fatalf("RegisterArray: %v", err)
	}
}

func TestMetricsSnapshotStartsEmpty(t *testing.T) {
	model := backend.NewCounterModel(8, -9)
	driver, err := simctl.NewDriver(simctl.DefaultParams(model), nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	snap := driver.MetricsSnapshot()
	if snap.TotalCommands != 0 {
		t.Errorf("TotalCommands = %d, want 0 before any session runs", snap.TotalCommands)
	}
}

func TestStructuredErrors(t *testing.T) {
	var _ error = simctl.NewError("op", simctl.ErrCodeCommandError, "msg")
	if !simctl.IsCode(simctl.NewError("op", simctl.ErrCodeFatalInit, "msg"), simctl.ErrCodeFatalInit) {
		t.Error("IsCode should match the error's own code")
	}
}
