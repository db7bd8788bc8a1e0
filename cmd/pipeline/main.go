/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/carverauto/decoytrace/pkg/config"
	"github.com/carverauto/decoytrace/pkg/logger"
	"github.com/carverauto/decoytrace/pkg/pipeline"
)

const defaultConfigPath = "/etc/decoytrace/pipeline.json"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to the pipeline configuration file")
	flag.Parse()

	if env := os.Getenv("DECOYTRACE_CONFIG"); env != "" && *configPath == defaultConfigPath {
		*configPath = env
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg pipeline.Config

	if err := config.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	svc, err := pipeline.NewService(&cfg, logg)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline service: %v", err)
	}

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("Failed to start pipeline service: %v", err)
	}

	<-ctx.Done()

	if err := svc.Stop(context.Background()); err != nil {
		log.Fatalf("Failed to stop pipeline service: %v", err)
	}
}
