/*
 * Copyright 2022 CECTC, Inc.
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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cectc/pgpack/pkg/codec"
	"github.com/cectc/pgpack/pkg/config"
	"github.com/cectc/pgpack/pkg/driver"
	"github.com/cectc/pgpack/pkg/lock"
	"github.com/cectc/pgpack/pkg/log"
)

func main() {
	rootCommand.Execute()
}

var (
	Version = "0.1.0"

	configPath string
	dsn        string

	rootCommand = &cobra.Command{
		Use:     "pgpack",
		Short:   "pgpack is a postgres client toolkit",
		Version: Version,
	}

	pingCommand = &cobra.Command{
		Use:   "ping",
		Short: "connect to the server and report its version",

		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("server version %s, backend pid %d\n",
				conn.ServerParameter("server_version"), conn.BackendPID())
			return nil
		},
	}

	lockKeyCommand = &cobra.Command{
		Use:   "lock-key NAME",
		Short: "print the advisory lock key derived from NAME",
		Args:  cobra.ExactArgs(1),

		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(lock.DeriveKey(args[0]))
		},
	}

	lockCommand = &cobra.Command{
		Use:   "lock NAME",
		Short: "hold the advisory lock named NAME until interrupted",

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			l := lock.New(args[0])
			guard, acquired, err := l.TryAcquire(cmd.Context(), conn)
			if err != nil {
				return err
			}
			if !acquired {
				return errors.Errorf("advisory lock %s is held by another session", l.Key())
			}
			log.Infof("holding advisory lock %s, interrupt to release", l.Key())

			c := make(chan os.Signal, 2)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			<-c

			_, err = guard.ReleaseNow(context.Background())
			return err
		},
	}

	queryCommand = &cobra.Command{
		Use:   "query SQL",
		Short: "run one query and print its rows",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			result, err := conn.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if fields := result.Fields(); len(fields) > 0 {
				names := make([]string, len(fields))
				for i, field := range fields {
					names[i] = field.Name
				}
				fmt.Println(strings.Join(names, "\t"))
			}
			for _, row := range result.Rows() {
				cells := make([]string, len(row.Fields()))
				for i := range cells {
					ref, err := row.Value(i)
					if err != nil {
						return err
					}
					value, err := codec.Decode(ref)
					if err != nil {
						return err
					}
					if value == nil {
						cells[i] = "NULL"
					} else {
						cells[i] = fmt.Sprintf("%v", value)
					}
				}
				fmt.Println(strings.Join(cells, "\t"))
			}
			fmt.Printf("(%d rows affected)\n", result.RowsAffected())
			return nil
		},
	}
)

// connect builds a connection from --dsn, or from the configuration
// file when no DSN is given.
func connect(ctx context.Context) (*driver.Conn, error) {
	if dsn != "" {
		return driver.Connect(ctx, dsn)
	}
	if configPath == "" {
		return nil, errors.New("either --dsn or --config is required")
	}
	conf := config.Load(configPath)
	if err := log.Init(&conf.Log); err != nil {
		return nil, err
	}
	cfg, err := conf.DriverConfig()
	if err != nil {
		return nil, err
	}
	connector, err := driver.NewConnectorConfig(cfg)
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx)
}

func init() {
	rootCommand.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("PGPACK_CONFIG"), "Load configuration from `FILE`")
	rootCommand.PersistentFlags().StringVarP(&dsn, "dsn", "d", os.Getenv("PGPACK_DSN"), "Connection string")
	rootCommand.AddCommand(pingCommand)
	rootCommand.AddCommand(lockKeyCommand)
	rootCommand.AddCommand(lockCommand)
	rootCommand.AddCommand(queryCommand)
}
