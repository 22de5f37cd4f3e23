package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"coursebar/internal/config"
	"coursebar/internal/ics"
	appLog "coursebar/internal/log"
	"coursebar/internal/schedule"
)

type flagConfig struct {
	configPath string
	calendar   string
	at         string
	watch      bool
	agenda     bool
	verbose    bool
}

func main() {
	flags := parseFlags()

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, flags, os.Stdout); err != nil {
		cancel()
		appLog.Error("coursebar failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, flags flagConfig, out io.Writer) error {
	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}

	path := flags.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	conf, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if !flags.verbose {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}
	if flags.calendar != "" {
		conf.Calendar = flags.calendar
		if !ics.IsURL(flags.calendar) {
			abs, err := filepath.Abs(flags.calendar)
			if err != nil {
				return err
			}
			conf.Calendar = abs
		}
	}

	cal := ics.Calendar{Location: conf.CalendarPath()}
	if ics.IsURL(cal.Location) {
		cacheDir, err := conf.CacheDirPath()
		if err != nil {
			return err
		}
		cal.Fetcher = ics.NewFetcher(cacheDir)
	}

	loc, err := conf.Location()
	if err != nil {
		return err
	}

	now := time.Now
	if flags.at != "" {
		at, err := parseAt(flags.at, loc)
		if err != nil {
			return err
		}
		now = func() time.Time { return at }
	}

	appLog.Info("effective config",
		"config_path", path,
		"calendar", cal.Location,
		"timezone", loc.String(),
		"refresh", conf.Refresh,
		"watch", flags.watch,
		"agenda", flags.agenda,
	)

	if flags.agenda {
		return printAgenda(ctx, out, cal, now(), loc)
	}

	// The first pass is fatal on any error, watch mode or not.
	sel, err := schedule.Status(ctx, cal, now(), loc)
	if err != nil {
		return err
	}
	if _, err := sel.WriteTo(out); err != nil {
		return err
	}

	if !flags.watch {
		return nil
	}
	return watch(ctx, cal, conf.Refresh, loc, now, out)
}

// watch reprints the selection on the configured cron schedule until
// SIGINT/SIGTERM. A failing tick is logged and skipped.
func watch(ctx context.Context, cal ics.Calendar, spec string, loc *time.Location, now func() time.Time, out io.Writer) error {
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		sel, err := schedule.Status(ctx, cal, now(), loc)
		if err != nil {
			appLog.Error("refresh failed; keeping previous output", err, "calendar", cal.Location)
			return
		}
		if _, err := sel.WriteTo(out); err != nil {
			appLog.Error("write failed", err)
		}
	})
	if err != nil {
		return fmt.Errorf("%w: refresh %q: %w", config.ErrConfiguration, spec, err)
	}

	c.Start()
	appLog.Info("watching calendar", "refresh", spec)

	<-ctx.Done()
	appLog.Info("signal received, shutting down")
	<-c.Stop().Done()
	return nil
}

func printAgenda(ctx context.Context, out io.Writer, cal ics.Calendar, now time.Time, loc *time.Location) error {
	courses, err := cal.Courses(ctx)
	if err != nil {
		return err
	}
	start, end := ics.DayRange(now, loc)
	res, err := ics.ExpandOccurrences(courses, ics.ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      start,
		RangeEnd:        end,
	})
	if err != nil {
		return err
	}
	for _, o := range res.Occurrences {
		if _, err := fmt.Fprintf(out, "%s-%s %s\n", o.Start.Format("15:04"), o.End.Format("15:04"), o.Summary); err != nil {
			return err
		}
	}
	return nil
}

// parseAt accepts RFC 3339 or an ICS date-time; a zone-less ICS value is
// read in loc.
func parseAt(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	dt, err := ics.ParseDateTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("-at %q: want RFC 3339 or YYYYMMDDTHHMMSS[Z]: %w", s, err)
	}
	if dt.Kind == ics.KindUTC {
		return dt.UTC, nil
	}
	return dt.Local.In(loc), nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/polybar/schedule_module/config.yaml)")
	flag.StringVar(&cfg.calendar, "calendar", "", "Path to ICS file (overrides config if set)")
	flag.StringVar(&cfg.at, "at", "", "Evaluate at this time instead of now (RFC 3339 or YYYYMMDDTHHMMSS[Z])")
	flag.BoolVar(&cfg.watch, "watch", false, "Keep running and reprint on the configured refresh schedule")
	flag.BoolVar(&cfg.agenda, "agenda", false, "Print today's course meetings instead of the status line")
	flag.BoolVar(&cfg.verbose, "v", false, "Debug logging to stderr")

	flag.Parse()

	return cfg
}
