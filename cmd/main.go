/*
Copyright 2025 Storelens Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/storelens/storesync"
	"github.com/storelens/storesync/config"
	"github.com/storelens/storesync/database"
	"github.com/storelens/storesync/internal/notification"
)

// Storesync wraps the root Cobra command for the CLI.
type Storesync struct {
	cmd *cobra.Command
}

// storesyncInstance holds the runtime service and its configuration, shared
// by every subcommand after preRun.
type storesyncInstance struct {
	storesync *storesync.Storesync
	cnf       *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and initializes the service before any
// subcommand executes.
func preRun(app *storesyncInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("storesync.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newStoresync, err := setupStoresync(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.storesync = newStoresync
		app.cnf = cnf

		return nil
	}
}

// setupStoresync connects the data source and builds the service.
func setupStoresync(cfg *config.Configuration) (*storesync.Storesync, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newStoresync, err := storesync.NewStoresync(db)
	if err != nil {
		return nil, fmt.Errorf("error creating storesync: %v", err)
	}
	return newStoresync, nil
}

// NewCLI builds the command-line interface with the server, worker and
// migration subcommands.
func NewCLI() *Storesync {
	var configFile string
	b := &storesyncInstance{}

	var rootCmd = &cobra.Command{
		Use:   "storesync",
		Short: "E-commerce store synchronization service",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./storesync.json", "Configuration file for storesync")

	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands(b))
	rootCmd.AddCommand(migrateCommands(b))

	return &Storesync{cmd: rootCmd}
}

func (w Storesync) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
