// Command fdfs-trackerd is the tracker daemon: it accepts storage and
// client connections and services them through the shared I/O core.
// Command dispatch (query/report handling) is out of scope; this binary
// exists to prove the core wires end to end.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/happyfish100/fastdfs-sub005/internal/daemon"
	"github.com/happyfish100/fastdfs-sub005/internal/procctl"
	"github.com/happyfish100/fastdfs-sub005/pkg/fdfsproto"
)

const role = "fdfs_trackerd"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet(role, flag.ContinueOnError)
	configPath := fs.String("c", "/etc/fdfs/tracker.conf", "path to tracker.conf")
	pidDir := fs.String("pid-dir", daemon.DefaultPIDDir(), "directory for the daemon's pid file")
	if err := fs.Parse(argv); err != nil {
		return 2
	}

	action := "start"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}
	act, err := procctl.ParseAction(action)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if act != procctl.ActionStart {
		if err := daemon.Stop(role, *pidDir); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if act == procctl.ActionStop {
			return 0
		}
	}

	d, err := daemon.New(role, *configPath, *pidDir, fdfsproto.TrackerPort)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := d.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
