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

package log

import (
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config describes the global logger. The zero value logs to stderr at
// info level in the console format.
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	Path       string `yaml:"path" json:"path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxDays    int    `yaml:"max_days" json:"max_days"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
}

func init() {
	logger, props, err := log.InitLogger(&log.Config{Level: "info", Format: "text"}, zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	log.ReplaceGlobals(logger, props)
}

// Init replaces the global logger according to cfg.
func Init(cfg *Config) error {
	fileConfig := log.FileLogConfig{}
	if cfg.Path != "" {
		fileConfig.Filename = cfg.Path
		fileConfig.MaxSize = cfg.MaxSize
		fileConfig.MaxDays = cfg.MaxDays
		fileConfig.MaxBackups = cfg.MaxBackups
	}
	logger, props, err := log.InitLogger(&log.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
		File:   fileConfig,
	}, zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	log.ReplaceGlobals(logger, props)
	return nil
}

// SetLevel adjusts the level of the global logger at runtime.
func SetLevel(level string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return err
	}
	log.SetLevel(l)
	return nil
}

func Debug(args ...interface{}) {
	log.S().Debug(args...)
}

func Debugf(format string, args ...interface{}) {
	log.S().Debugf(format, args...)
}

func Info(args ...interface{}) {
	log.S().Info(args...)
}

func Infof(format string, args ...interface{}) {
	log.S().Infof(format, args...)
}

func Warn(args ...interface{}) {
	log.S().Warn(args...)
}

func Warnf(format string, args ...interface{}) {
	log.S().Warnf(format, args...)
}

func Error(args ...interface{}) {
	log.S().Error(args...)
}

func Errorf(format string, args ...interface{}) {
	log.S().Errorf(format, args...)
}

func Panic(args ...interface{}) {
	log.S().Panic(args...)
}

func Panicf(format string, args ...interface{}) {
	log.S().Panicf(format, args...)
}

func Fatal(args ...interface{}) {
	log.S().Fatal(args...)
}

func Fatalf(format string, args ...interface{}) {
	log.S().Fatalf(format, args...)
}
