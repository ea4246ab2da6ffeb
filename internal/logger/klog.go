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

package logger

import "k8s.io/klog/v2"

// Logger is the structured-logging surface capspace calls against.
// Kept as an interface, rather than a direct dependency on klog,
// so tests can swap in a recording logger without touching klog's
// global state.
type Logger interface {
	InfoS(msg string, keysAndValues ...interface{})
	ErrorS(err error, msg string, keysAndValues ...interface{})
}

type toKlog struct{}

// ToKlog is the default Logger, forwarding straight to klog.
var ToKlog Logger = &toKlog{}

// InfoS forwards to klog.InfoS.
func (l *toKlog) InfoS(msg string, keysAndValues ...interface{}) {
	klog.InfoS(msg, keysAndValues...)
}

// ErrorS forwards to klog.ErrorS.
func (l *toKlog) ErrorS(err error, msg string, keysAndValues ...interface{}) {
	klog.ErrorS(err, msg, keysAndValues...)
}
