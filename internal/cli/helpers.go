package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaI-observe-online/SmartFileOrganizer/internal/audit"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/config"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/display"
	orgerrors "github.com/gaI-observe-online/SmartFileOrganizer/internal/errors"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/recovery"
	"github.com/gaI-observe-online/SmartFileOrganizer/internal/utils"
)

// loadConfig resolves and loads configuration honoring the --config flag.
func loadConfig() (*config.Config, string, error) {
	path, err := config.ResolvePath(cfgFile)
	if err != nil {
		return nil, "", orgerrors.Configuration("path", err.Error())
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", orgerrors.Configuration(path, err.Error())
	}
	return cfg, path, nil
}

// openStore opens the audit store at $HOME/.organizer, independent of any
// --config override — the audit trail always lives at the canonical
// organizer directory.
func openStore() (*audit.Store, string, error) {
	orgDir, err := utils.OrganizerDir()
	if err != nil {
		return nil, "", err
	}
	store, err := audit.Open(orgDir)
	if err != nil {
		return nil, "", err
	}
	return store, orgDir, nil
}

func newDisplay() *display.Display {
	return display.NewWithOptions(noColor)
}

// confirm prompts for a yes/no answer on stdin, defaulting to no.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// checkForCrash runs before every command. When the prior run left an
// in-flight scan that was never marked complete, it reconstructs the
// incident, offers to clear it, and honors --safe-mode by entering safe
// mode for the rest of this invocation.
func checkForCrash(cmd *cobra.Command, args []string) error {
	orgDir, err := utils.OrganizerDir()
	if err != nil {
		return err
	}
	mgr, err := recovery.New(filepath.Join(orgDir, "state"))
	if err != nil {
		return err
	}

	if safeModeFlag {
		return mgr.EnterSafeMode()
	}

	interrupted, err := mgr.InterruptedScan()
	if err != nil || interrupted == nil {
		return nil
	}

	disp := newDisplay()
	disp.Warning("Previous session did not complete normally")
	fmt.Println(mgr.ReconstructIncident(interrupted, !showTechnicalFlag))

	fmt.Println("What would you like to do?")
	fmt.Println("  1. Continue (clear the error and proceed)")
	fmt.Println("  2. Enter safe mode")
	fmt.Print("Choose an option [1]: ")

	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	switch strings.TrimSpace(line) {
	case "2":
		if err := mgr.EnterSafeMode(); err != nil {
			return err
		}
		safeModeFlag = true
		disp.Warning("Entered safe mode")
	default:
		if err := mgr.ClearScanState(); err != nil {
			return err
		}
		disp.Success("Cleared previous state, continuing")
	}
	return nil
}
