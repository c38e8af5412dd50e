package commands

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aigent47/grok-code/internal"
	"github.com/aigent47/grok-code/internal/config"
)

func knownModel(name string) bool {
	for _, m := range config.Models {
		if m == name {
			return true
		}
	}
	return false
}

// maskKey hides all but the ends of an API key
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func (a *App) configure(args string) error {
	if args == "auto-update" {
		enabled, err := a.Config.ToggleAutoUpdate()
		if err != nil {
			a.Console.Error("Failed to change auto-update setting: %v", err)
			return err
		}
		if enabled {
			a.Console.Success("Auto-updates enabled")
		} else {
			a.Console.Warn("Auto-updates disabled")
		}
		return nil
	}
	if args != "" {
		a.Console.Error("Usage: /config [auto-update]")
		return nil
	}

	cur := a.Config.Get()
	patch, err := a.askConfig(cur)
	if err != nil {
		if errors.Is(err, io.EOF) {
			a.Console.Muted("Configuration cancelled.")
			return nil
		}
		return err
	}

	if _, err := a.Config.Update(patch); err != nil {
		a.Console.Error("Failed to save config: %v", err)
		return err
	}
	a.Console.Info("Config updated.")
	return nil
}

func (a *App) askConfig(cur config.Config) (config.Patch, error) {
	var patch config.Patch

	masked := maskKey(cur.APIKey)
	key, err := a.Console.Ask("API Key:", masked)
	if err != nil {
		return patch, err
	}
	if key != masked {
		patch.APIKey = &key
	}

	model, err := a.Console.Choose("Default Model:", config.Models, cur.DefaultModel)
	if err != nil {
		return patch, err
	}
	patch.DefaultModel = &model

	dir, err := a.Console.Ask("Working Dir:", cur.WorkingDir)
	if err != nil {
		return patch, err
	}
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		a.Console.Warn("%s is not a directory; keeping %s", dir, cur.WorkingDir)
	} else {
		patch.WorkingDir = &dir
	}

	autoUpdate, err := a.Console.Decide("Enable auto-updates?", cur.AutoUpdateEnabled)
	if err != nil {
		return patch, err
	}
	patch.AutoUpdateEnabled = &autoUpdate
	return patch, nil
}

// FirstRun shows the disclaimer and the setup wizard once per installation.
// End of input leaves the wizard unfinished so it runs again next time.
func (a *App) FirstRun() error {
	paths := a.Config.Paths()
	if paths.HasMarker(FirstRunMarker) {
		return nil
	}

	a.Console.Splash(Banner)
	a.Console.Warn("FIRST RUN - IMPORTANT LEGAL DISCLAIMER")
	a.Console.Println(FirstRunNotice)
	a.Console.Header("Let's set up GROK-CODE CLI!")

	var patch config.Patch
	if cur := a.Config.Get(); cur.APIKey == "" {
		for {
			key, err := a.Console.Ask("Enter your X.AI API key:", "")
			if err != nil {
				return err
			}
			if key != "" {
				patch.APIKey = &key
				break
			}
			a.Console.Error("API key is required. Get one at https://x.ai/api")
		}
	}

	model, err := a.Console.Choose("Select default model:", config.Models, config.DefaultModel)
	if err != nil {
		return err
	}
	patch.DefaultModel = &model

	if _, err := a.Config.Update(patch); err != nil {
		a.Console.Error("Failed to save config: %v", err)
		return err
	}
	a.Session.Model = model

	marker := paths.Marker(FirstRunMarker)
	if err := os.WriteFile(marker, []byte(time.Now().UTC().Format(time.RFC3339)), 0644); err != nil {
		return &internal.StorageError{Path: marker, Op: "write", Err: err}
	}

	a.Console.Success("Setup complete! You can now use GROK-CODE CLI.")
	a.Console.Info(`Try: grok "Write a hello world function in Python"`)
	a.Console.Muted("To update settings later, use: grok /config")
	return nil
}
