/*
 * S390 - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	getopt "github.com/pborman/getopt/v2"
	reader "github.com/rcornwell/S390/command/reader"
	config "github.com/rcornwell/S390/config/configparser"
	sysconfig "github.com/rcornwell/S390/config/sysconfig"
	core "github.com/rcornwell/S390/emu/core"
	"github.com/rcornwell/S390/util/debug"
	logger "github.com/rcornwell/S390/util/logger"

	_ "github.com/rcornwell/S390/config/debugconfig"
)

var Logger *slog.Logger

// Return environment value or default.
func getenv(name string, def string) string {
	if value, ok := os.LookupEnv(name); ok {
		return value
	}
	return def
}

func main() {
	// Settings in .env are only defaults, missing file is fine.
	_ = godotenv.Load()
	envDebug, _ := strconv.ParseBool(getenv("S390_DEBUG", "false"))

	optConfig := getenv("S390_CONFIG", "S390.cfg")
	cfgFlag := getopt.FlagLong(&optConfig, "config", 'c', "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', getenv("S390_LOG", ""), "Log file")
	optHistory := getopt.StringLong("history", 'H', getenv("S390_HISTORY", ""), "Command history file")
	optDebug := getopt.BoolLong("debug", 'd', "Log debug to console")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var out io.Writer
	if *optLogFile != "" {
		file, err := os.Create(*optLogFile)
		if err != nil {
			slog.Error("unable to create log file: " + err.Error())
			os.Exit(1)
		}
		defer file.Close()
		out = file
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.NewHandler(out, &slog.HandlerOptions{Level: programLevel, AddSource: false}, *optDebug || envDebug))
	slog.SetDefault(Logger)

	Logger.Info("S390 Started")

	_, err := os.Stat(optConfig)
	switch {
	case err == nil:
		err = config.LoadConfigFile(optConfig)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	case os.IsNotExist(err) && !cfgFlag.Seen():
		Logger.Info("No configuration file, using defaults", "file", optConfig)
	default:
		Logger.Error("Configuration file can't be read", "file", optConfig, "error", err)
		os.Exit(1)
	}
	defer debug.Close()

	sys, err := sysconfig.Current().Build()
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	// Create a routine for each processor.
	processors := core.NewComplex(sys)
	processors.Start()

	reader.ConsoleReader(processors, *optHistory)

	processors.Stop()
	Logger.Info("Processors stopped.")
}
