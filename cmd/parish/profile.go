package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// Profile holds client defaults so commands don't need --url/--token/--user.
type Profile struct {
	URL   string `toml:"url,omitempty"`
	Token string `toml:"token,omitempty"`
	User  string `toml:"user,omitempty"`
	Role  string `toml:"role,omitempty"`
}

func defaultProfilePath() string {
	if p := os.Getenv("PARISH_PROFILE"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "parish", "profile.toml")
}

// loadProfile reads the profile at path. A missing file is an empty profile.
func loadProfile(path string) (Profile, error) {
	var p Profile
	if path == "" {
		return p, nil
	}
	if _, err := toml.DecodeFile(path, &p); err != nil {
		if os.IsNotExist(err) {
			return Profile{}, nil
		}
		return Profile{}, err
	}
	return p, nil
}

func saveProfile(path string, p Profile) error {
	if path == "" {
		return fmt.Errorf("no profile path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(p)
}

// applyProfile fills flags the user did not set from the profile.
func applyProfile(cmd *cobra.Command, p Profile) {
	flags := cmd.Flags()
	if !flags.Changed("url") && p.URL != "" {
		serverURL = p.URL
	}
	if !flags.Changed("token") && authToken == "" && p.Token != "" {
		authToken = p.Token
	}
	if !flags.Changed("user") && p.User != "" {
		userID = p.User
	}
	if p.Role != "" && sessionRole == "" {
		sessionRole = p.Role
	}
}

func requireUser() (string, error) {
	if userID == "" {
		return "", fmt.Errorf("no user: pass --user or set user in %s", profilePath)
	}
	return userID, nil
}

var profileCmd = &cobra.Command{
	Use:     "profile",
	Short:   "Show or update the client profile",
	GroupID: "system",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the client profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile(profilePath)
		if err != nil {
			return err
		}
		if p.Token != "" {
			p.Token = "********"
		}
		if jsonOutput {
			return printJSON(p)
		}
		fmt.Printf("Path:  %s\n", profilePath)
		fmt.Printf("URL:   %s\n", p.URL)
		fmt.Printf("User:  %s\n", p.User)
		fmt.Printf("Role:  %s\n", p.Role)
		fmt.Printf("Token: %s\n", p.Token)
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save --url, --token, --user and --role into the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile(profilePath)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("url") {
			p.URL = serverURL
		}
		if flags.Changed("token") {
			p.Token = authToken
		}
		if flags.Changed("user") {
			p.User = userID
		}
		if flags.Changed("role") {
			p.Role = sessionRole
		}
		if err := saveProfile(profilePath, p); err != nil {
			return fmt.Errorf("saving profile: %w", err)
		}
		fmt.Printf("Saved %s\n", profilePath)
		return nil
	},
}

func init() {
	profileSetCmd.Flags().StringVar(&sessionRole, "role", "", "default session role")
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
}
