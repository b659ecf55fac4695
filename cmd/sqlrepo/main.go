/*
 * Copyright 2025 tomoncle.
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
	"os"

	"github.com/tomoncle/sqlrepo/utils"
)

func main() {
	logger := utils.NewDefaultLogger("sqlrepo")
	app := NewRunner(os.Stdout, logger).Command()
	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Error("application error", "error", err)
		os.Exit(1)
	}
}
