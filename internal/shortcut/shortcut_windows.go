//go:build windows

package shortcut

import (
	"fmt"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// Extension is appended to Spec.Path.
const Extension = ".lnk"

// sFalse is returned by CoInitializeEx when COM is already initialised on the thread.
const sFalse = 0x00000001

func write(file string, spec *Spec) error {
	// COM apartments are per OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		oleErr, ok := err.(*ole.OleError)
		if !ok || oleErr.Code() != sFalse {
			return fmt.Errorf("initialise COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return fmt.Errorf("create WScript.Shell: %w", err)
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("query IDispatch: %w", err)
	}
	defer shell.Release()

	created, err := oleutil.CallMethod(shell, "CreateShortcut", file)
	if err != nil {
		return fmt.Errorf("CreateShortcut: %w", err)
	}

	link := created.ToIDispatch()
	defer link.Release()

	properties := map[string]string{
		"TargetPath":       spec.Target,
		"WorkingDirectory": spec.WorkingDir,
		"Description":      spec.Description,
		"IconLocation":     spec.Icon + ",0",
	}

	for name, value := range properties {
		if _, err = oleutil.PutProperty(link, name, value); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}

	if _, err = oleutil.CallMethod(link, "Save"); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	return nil
}
