package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"runtime/debug"
	"time"
)

var Version = "0.4.0"
var UserAgent = "ptzd/" + Version

var Info = map[string]any{
	"version": Version,
}

func Init() {
	var confs flagConfig
	var daemon bool
	var version bool

	flag.Var(&confs, "config", "ptzd config (path to file, raw YAML or key.sub=value), support multiple")
	if runtime.GOOS != "windows" {
		flag.BoolVar(&daemon, "daemon", false, "Run program in background")
	}
	flag.BoolVar(&version, "version", false, "Print the version of the application and exit")
	flag.Parse()

	if version {
		fmt.Printf("ptzd version %s%s %s/%s\n", Version, revision(), runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	if daemon {
		// Re-run the program in background and exit
		cmd := exec.Command(os.Args[0], withoutFlag(os.Args[1:], "-daemon")...)
		if err := cmd.Start(); err != nil {
			fmt.Fprintln(os.Stderr, "can't start daemon:", err)
			os.Exit(1)
		}
		fmt.Println("Running in daemon mode with PID:", cmd.Process.Pid)
		os.Exit(0)
	}

	initConfig(confs)
	initLogger()
	initStorage()

	platform := fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	Logger.Info().Str("version", Version).Str("platform", platform).Msg("ptzd")
	Logger.Debug().Str("version", runtime.Version()).Msg("build")

	if ConfigPath != "" {
		Logger.Info().Str("path", ConfigPath).Msg("config")

		if err := WatchConfig(context.Background()); err != nil {
			Logger.Warn().Err(err).Msg("[app] watch config")
		}
	}
}

// revision - short VCS commit and time from build info, if any
func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}

	var rev string
	var ts time.Time
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			rev = setting.Value
			if len(rev) > 7 {
				rev = rev[:7]
			}
		case "vcs.time":
			ts, _ = time.Parse(time.RFC3339, setting.Value)
		}
	}

	if rev == "" {
		return ""
	}
	if ts.IsZero() {
		return " (" + rev + ")"
	}
	return " (" + rev + ") " + ts.Local().Format(time.DateTime)
}

func withoutFlag(args []string, name string) []string {
	dst := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != name && arg != "-"+name {
			dst = append(dst, arg)
		}
	}
	return dst
}
