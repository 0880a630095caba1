package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"helix/internal/config"
	"helix/internal/store"
	"helix/internal/types"
)

var (
	initName     string
	initCompany  string
	initTitle    string
	initIndustry string
)

// initCmd bootstraps a workspace: writes the default config and creates
// the recruiter profile the chat interface runs as.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize Helix in the current workspace",
	Long: `Creates the .helix directory with a default config.yaml and a recruiter
profile. The profile's name, company, and title are woven into generated
outreach so messages read as coming from a real sender.

Example:
  helix init --name "Dana Reyes" --company "Acme Robotics" --title "Technical Recruiter"`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "recruiter name used as the outreach sender")
	initCmd.Flags().StringVar(&initCompany, "company", "", "hiring company name")
	initCmd.Flags().StringVar(&initTitle, "title", "", "recruiter job title")
	initCmd.Flags().StringVar(&initIndustry, "industry", "", "hiring industry")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath(workspace)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := cfg.Save(cfgPath); err != nil {
			return err
		}
		fmt.Println("Created", cfgPath)
	} else {
		fmt.Println("Config already exists at", cfgPath)
	}

	st, err := store.New(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	userID, err := ensureUser(st, workspace, &types.UserProfile{
		Name:     initName,
		Company:  initCompany,
		Title:    initTitle,
		Industry: initIndustry,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Workspace ready (recruiter profile #%d).\n", userID)
	fmt.Println("Set OPENAI_API_KEY or GEMINI_API_KEY, then run `helix` to chat or `helix serve` for the API.")
	return nil
}

// userIDPath is where the workspace remembers its recruiter profile.
func userIDPath(ws string) string {
	return filepath.Join(ws, ".helix", "user_id")
}

// ensureUser returns the workspace's recruiter profile ID, creating the
// profile when the workspace has none yet.
func ensureUser(st *store.Store, ws string, profile *types.UserProfile) (int64, error) {
	path := userIDPath(ws)

	if data, err := os.ReadFile(path); err == nil {
		id, convErr := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if convErr == nil {
			if _, getErr := st.GetUser(id); getErr == nil {
				return id, nil
			}
		}
		// Stale pointer, fall through and recreate.
	}

	if profile.Name == "" {
		profile.Name = os.Getenv("HELIX_USER_NAME")
	}
	if profile.Company == "" {
		profile.Company = os.Getenv("HELIX_COMPANY")
	}

	id, err := st.CreateUser(profile)
	if err != nil {
		return 0, fmt.Errorf("failed to create recruiter profile: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, []byte(strconv.FormatInt(id, 10)), 0644); err != nil {
		return 0, err
	}
	return id, nil
}
