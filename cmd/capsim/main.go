/*
 * Copyright (c) 2024 the l4sm authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// capsim loads a boot manifest describing the physical memory handed
// to the capability core, installs its root untyped capabilities, and
// replays a scenario file of capspace operations against the
// resulting space — logging every step. It stands in for the syscall
// layer and platform boot path spec.md scopes out (§3.5, §6), the way
// the teacher's own cmd/nvidia-device-plugin stands in front of
// internal/rm and internal/plugin.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	bootcfg "github.com/CharlyCst/l4sm/api/bootcfg/v1"
	"github.com/CharlyCst/l4sm/internal/capspace"
	"github.com/CharlyCst/l4sm/internal/scenario"
)

type options struct {
	manifestFile string
	scenarioFile string
	rootSlots    int
}

func main() {
	o := &options{}
	c := cli.NewApp()
	c.Name = "capsim"
	c.Usage = "replay capability-space scenarios against a boot manifest"
	c.Action = func(ctx *cli.Context) error {
		return run(ctx, o)
	}
	c.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "boot-manifest",
			Usage:       "path to the boot manifest naming root untyped ranges",
			Destination: &o.manifestFile,
			EnvVars:     []string{"CAPSIM_BOOT_MANIFEST"},
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "scenario",
			Usage:       "path to the scenario file to replay",
			Destination: &o.scenarioFile,
			EnvVars:     []string{"CAPSIM_SCENARIO"},
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "root-slots",
			Usage:       "number of slots in the space's root CNode",
			Value:       16,
			Destination: &o.rootSlots,
			EnvVars:     []string{"CAPSIM_ROOT_SLOTS"},
		},
	}

	if err := c.Run(os.Args); err != nil {
		klog.Error(err)
		os.Exit(1)
	}
}

func run(c *cli.Context, o *options) error {
	klog.InfoS("starting capsim", "manifest", o.manifestFile, "scenario", o.scenarioFile)

	watchDir := filepath.Dir(o.scenarioFile)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(watchDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", watchDir, err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

loop:
	if err := runOnce(o); err != nil {
		return fmt.Errorf("scenario replay failed: %w", err)
	}

	klog.Info("replay complete, watching for scenario changes")
	for {
		select {
		case event := <-watcher.Events:
			if event.Name == o.scenarioFile && (event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create) {
				klog.InfoS("scenario file changed, replaying", "path", event.Name)
				goto loop
			}
		case err := <-watcher.Errors:
			klog.ErrorS(err, "fs watcher error")
		case s := <-sigs:
			klog.InfoS("received signal, shutting down", "signal", s.String())
			return nil
		}
	}
}

// runOnce builds a fresh capability space from the boot manifest and
// runs the scenario file against it once, start to finish.
func runOnce(o *options) error {
	manifest, err := bootcfg.Parse(o.manifestFile)
	if err != nil {
		return fmt.Errorf("unable to load boot manifest: %w", err)
	}
	if len(manifest.Roots) > o.rootSlots {
		return fmt.Errorf("boot manifest names %d roots but root CNode only has %d slots", len(manifest.Roots), o.rootSlots)
	}

	space, err := capspace.New(o.rootSlots, nil)
	if err != nil {
		return fmt.Errorf("unable to create capability space: %w", err)
	}

	root := space.Root()
	runner := scenario.NewRunner(space)
	for i, r := range manifest.Roots {
		slot := &root.Slots[i]
		if err := space.InstallRootUntyped(slot, r.Start, r.End); err != nil {
			return fmt.Errorf("unable to install root %q: %w", r.Name, err)
		}
		runner.Seed(r.Name, slot)
	}

	return replayScenario(runner, o.scenarioFile)
}

// replayScenario parses the scenario file and runs it against runner,
// whose named cells already include one per manifest root (see
// runOnce). A scenario's own install_root_untyped op is only needed
// for roots not already named by the boot manifest.
func replayScenario(runner *scenario.Runner, scenarioFile string) error {
	f, err := os.Open(scenarioFile)
	if err != nil {
		return fmt.Errorf("unable to open scenario file: %w", err)
	}
	defer f.Close()

	sc, err := scenario.Parse(f)
	if err != nil {
		return fmt.Errorf("unable to parse scenario file: %w", err)
	}

	return runner.Run(sc.Steps)
}
