// ABOUTME: Root command and shared state for the nexuscrm CLI
// ABOUTME: Wires config, logger, store and services into every subcommand
package cli

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harperreed/nexuscrm/config"
	"github.com/harperreed/nexuscrm/reports"
	"github.com/harperreed/nexuscrm/settings"
	"github.com/harperreed/nexuscrm/view"
)

// App holds what a single CLI invocation works against. The store is
// seeded fresh for each process.
type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	DB       *sql.DB
	Settings *settings.Service
	Reports  *reports.Service
}

func NewApp(cfg *config.Config, logger *logrus.Logger, database *sql.DB) *App {
	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       database,
		Settings: settings.NewService(logger),
		Reports:  reports.NewService(database, logger),
	}
}

func (a *App) viewOptions() view.Options {
	return view.Options{FilterByDateRange: a.Config.DateRangeFilter}
}

func NewRootCmd(app *App, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nexuscrm",
		Short:         "Contact management from the terminal, the browser or an MCP client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newContactsCmd(app),
		newImportCmd(app),
		newExportCmd(app),
		newTemplateCmd(),
		newBulkCmd(app),
		newSettingsCmd(app),
		newReportsCmd(app),
		newDashboardCmd(app),
		newGraphCmd(app),
		newTUICmd(app),
		newWebCmd(app),
		newMCPCmd(app),
	)
	return cmd
}

// parseIDs accepts ids as repeated values, comma-separated, or both.
func parseIDs(values []string) ([]int64, error) {
	var ids []int64
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid contact ID: %q", s)
	}
	return id, nil
}
