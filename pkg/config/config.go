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

package config

import (
	"io/ioutil"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cectc/pgpack/pkg/driver"
	"github.com/cectc/pgpack/pkg/log"
)

// Configuration is the yaml configuration of the pgpack command line
// tool.
type Configuration struct {
	// DSN is the connection string, either a postgres:// URL or the
	// keyword-value form. Takes precedence over Connection.
	DSN string `yaml:"dsn" json:"dsn"`

	// Connection configures the connection field by field when no DSN
	// is given.
	Connection *Connection `yaml:"connection" json:"connection"`

	Log log.Config `yaml:"log" json:"log"`

	// StatementLog, when set, records every executed statement to a
	// rotating file.
	StatementLog *driver.StatementLogConfig `yaml:"statement_log" json:"statement_log"`
}

type Connection struct {
	Host            string            `yaml:"host" json:"host"`
	Port            int               `yaml:"port" json:"port"`
	User            string            `yaml:"user" json:"user"`
	Password        string            `yaml:"password" json:"password"`
	Database        string            `yaml:"database" json:"database"`
	SSLMode         string            `yaml:"sslmode" json:"sslmode"`
	ConnectTimeout  time.Duration     `yaml:"connect_timeout" json:"connect_timeout"`
	ApplicationName string            `yaml:"application_name" json:"application_name"`
	Params          map[string]string `yaml:"params" json:"params"`
}

// DriverConfig converts the loaded configuration into the driver's
// connection config.
func (conf *Configuration) DriverConfig() (*driver.Config, error) {
	var cfg *driver.Config
	if conf.DSN != "" {
		parsed, err := driver.ParseDSN(conf.DSN)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	} else {
		cfg = driver.NewConfig()
		if conn := conf.Connection; conn != nil {
			cfg.Host = conn.Host
			cfg.Port = conn.Port
			cfg.User = conn.User
			cfg.Password = conn.Password
			cfg.Database = conn.Database
			cfg.ConnectTimeout = conn.ConnectTimeout
			cfg.ApplicationName = conn.ApplicationName
			cfg.Params = conn.Params
			if conn.SSLMode != "" {
				mode, err := driver.ParseSSLMode(conn.SSLMode)
				if err != nil {
					return nil, err
				}
				cfg.SSLMode = mode
			}
		}
	}
	if conf.StatementLog != nil {
		cfg.StatementLog = driver.NewStatementLog(*conf.StatementLog)
	}
	return cfg, nil
}

func parse(content []byte) *Configuration {
	cfg := &Configuration{}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		log.Fatalf("[config] [default load] yaml unmarshal config failed, error: %v", err)
	}
	return cfg
}

// Load config file and parse
func Load(path string) *Configuration {
	configPath, _ := filepath.Abs(path)
	log.Infof("load config from :  %s", configPath)
	content, err := ioutil.ReadFile(configPath)
	if err != nil {
		log.Fatalf("[config] [default load] load config failed, error: %v", err)
	}
	return parse(content)
}
