package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jobwatch/internal/client"
	"jobwatch/internal/monitor"
	"jobwatch/internal/render"
	"jobwatch/internal/scheduler"
	"jobwatch/pkg/api"
)

// newMonitor builds a one-shot monitor over the configured scheduler.
func newMonitor(pageSize int) *monitor.Monitor {
	sc := client.New(viper.GetString("url"), viper.GetDuration("timeout"))
	return monitor.New(sc, pageSize, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func renderOptions() (render.Options, error) {
	tz := viper.GetString("tz")
	if tz == "" || tz == "Local" {
		return render.Options{Location: time.Local}, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return render.Options{}, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return render.Options{Location: loc}, nil
}

// addQueryFlags registers the filter and pagination flags shared by the
// view commands.
func addQueryFlags(c *cobra.Command) {
	c.Flags().String("type", "", "Only show items of this type (\"all\" for every type)")
	c.Flags().StringP("search", "s", "", "Case-insensitive search")
	c.Flags().IntP("page", "p", 1, "Page number (1-based)")
	c.Flags().Int("size", 10, "Items per page")
}

// queryUpdate reads the query flags into a state update.
func queryUpdate(cmd *cobra.Command) (monitor.Update, int, error) {
	flags := cmd.Flags()
	typeFilter, _ := flags.GetString("type")
	search, _ := flags.GetString("search")
	page, _ := flags.GetInt("page")
	size, _ := flags.GetInt("size")

	if page < 1 {
		return nil, 0, fmt.Errorf("invalid page %d: pages start at 1", page)
	}
	if size < 1 {
		return nil, 0, fmt.Errorf("invalid size %d", size)
	}

	return func(s *scheduler.QueryState) {
		s.SetTypeFilter(typeFilter)
		s.SetSearchQuery(search)
		s.PageIndex = page - 1
	}, size, nil
}

// reportError prints a failed view's error and returns errReported.
func reportError(cmd *cobra.Command, e *api.ErrorResponse) error {
	cmd.Printf("Error (%s): %s\n", e.Code, e.Error)
	return errReported
}
