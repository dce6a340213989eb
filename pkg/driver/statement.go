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

package driver

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cectc/pgpack/pkg/log"
)

// StatementLogConfig describes the rotating statement log file.
type StatementLogConfig struct {
	Path       string `yaml:"path" json:"path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxDays    int    `yaml:"max_days" json:"max_days"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	// SlowThreshold additionally reports statements that take at least
	// this long through the global logger at warn level. Zero disables
	// slow statement reporting.
	SlowThreshold time.Duration `yaml:"slow_threshold" json:"slow_threshold"`
}

// StatementLog records every executed statement with its outcome and
// timing into a rotating file. A nil *StatementLog discards records,
// so Config.StatementLog can stay unset.
//
// One StatementLog may be shared by any number of connections.
type StatementLog struct {
	out           io.WriteCloser
	slowThreshold time.Duration
}

// NewStatementLog opens a statement log at cfg.Path.
func NewStatementLog(cfg StatementLogConfig) *StatementLog {
	return &StatementLog{
		out: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxDays,
			MaxBackups: cfg.MaxBackups,
		},
		slowThreshold: cfg.SlowThreshold,
	}
}

// Record appends one statement record. The full statement text is kept
// on a single line.
func (l *StatementLog) Record(connID uint32, query string, rowsAffected uint64, elapsed time.Duration, err error) {
	if l == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = fmt.Sprintf("error: %v", err)
	}
	fmt.Fprintf(l.out, "%s conn=%d rows=%d elapsed=%s status=%q stmt=%q\n",
		time.Now().UTC().Format(time.RFC3339Nano), connID, rowsAffected, elapsed, status, query)
	if l.slowThreshold > 0 && elapsed >= l.slowThreshold {
		log.Warnf("connection %d: slow statement took %s: %s", connID, elapsed, summarizeStatement(query))
	}
}

// Close flushes and closes the underlying file.
func (l *StatementLog) Close() error {
	if l == nil {
		return nil
	}
	return l.out.Close()
}

// summarizeStatement keeps the first few words of a statement so warn
// lines stay short.
func summarizeStatement(query string) string {
	words := strings.Fields(query)
	if len(words) <= 4 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:4], " ") + " ..."
}
