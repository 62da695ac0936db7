// Copyright 2024 The mpdscreen Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"mpdscreen/logger"
	"mpdscreen/nowplaying"
)

var osExit = os.Exit  // A variable to allow mocking os.Exit in tests
var headlessMode bool // This can be set to true during tests
var testMode bool     // This can be set to true during tests, too

const DEVELOPMENT = "development"

// Name is the program name shown in the status bar and on DBus
var Name string = "mpdscreen"

// Version is the program version; usually set from BuildInfo
var Version string = DEVELOPMENT

func readConfig(configFile *string) error {
	if configFile != nil && *configFile != "" {
		// use custom config file
		viper.SetConfigFile(*configFile)
	} else {
		// lookup default dirs
		viper.SetConfigName("mpdscreen")
		viper.SetConfigType("toml")
		viper.AddConfigPath("$HOME/.config/mpdscreen")
		viper.AddConfigPath(".")
	}

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 6600)
	viper.SetDefault("client.poll-interval", "5s")
	viper.SetDefault("ui.show-title", true)
	viper.SetDefault("ui.show-artist", true)
	viper.SetDefault("ui.show-album", true)
	viper.SetDefault("ui.show-filename", true)

	if err := viper.ReadInConfig(); err != nil {
		// everything has a usable default, so a missing default-path
		// config file is fine; an explicitly named one is not
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && (configFile == nil || *configFile == "") {
			return nil
		}
		return fmt.Errorf("config file error: %s", err)
	}
	return nil
}

// parseServerArg takes the first non-flag argument, host or host:port, and
// parses it into the viper config.
func parseServerArg(arg string) {
	if host, port, err := net.SplitHostPort(arg); err == nil {
		if p, err := strconv.Atoi(port); err == nil {
			viper.Set("server.host", host)
			viper.Set("server.port", p)
			return
		}
	}
	viper.Set("server.host", arg)
}

// loadPassword resolves the configured password. A password file wins over
// an inline password so the config file can stay free of secrets.
func loadPassword() (string, error) {
	if file := viper.GetString("auth.password-file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading password file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return viper.GetString("auth.password"), nil
}

// return codes:
// 0 - OK
// 1 - generic errors
// 2 - config errors
func main() {
	help := flag.Bool("help", false, "Print usage")
	enableMpris := flag.Bool("mpris", false, "mirror now-playing metadata over MPRIS2")
	hideTitle := flag.Bool("hide-title", false, "don't show the track title")
	hideArtist := flag.Bool("hide-artist", false, "don't show the artist")
	hideAlbum := flag.Bool("hide-album", false, "don't show the album")
	hideFilename := flag.Bool("hide-filename", false, "don't show the file name")
	configFile := flag.String("config", "", "use config `file`")
	version := flag.Bool("version", false, "print the mpdscreen version and exit")

	flag.Parse()
	if *help {
		fmt.Printf("USAGE: %s <args> [host[:port]]\n", os.Args[0])
		flag.Usage()
		osExit(0)
	}
	if Version == DEVELOPMENT {
		if bi, ok := debug.ReadBuildInfo(); ok {
			Version = bi.Main.Version
		}
	}
	if *version {
		fmt.Printf("mpdscreen %s\n", Version)
		osExit(0)
	}

	if err := readConfig(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read configuration: %v\n", err)
		osExit(2)
	}
	if len(flag.Args()) > 0 {
		parseServerArg(flag.Arg(0))
	}

	logger := logger.Init()

	password, err := loadPassword()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		osExit(2)
	}

	watcher := nowplaying.NewWatcher(nowplaying.Config{
		Host:         viper.GetString("server.host"),
		Port:         viper.GetInt("server.port"),
		Password:     password,
		PollInterval: viper.GetDuration("client.poll-interval"),
	}, logger)

	if testMode {
		fmt.Println("Running in test mode for testing.")
		osExit(0x23420001)
		return
	}

	watcher.Start()

	var mprisPlayer *MprisPlayer
	// mpris2 metadata mirror (linux only but fails gracefully elsewhere)
	if *enableMpris || viper.GetBool("mpris.enabled") {
		mprisPlayer, err = RegisterMprisPlayer(logger)
		if err != nil {
			fmt.Printf("Unable to register MPRIS with DBUS: %s\n", err)
			fmt.Println("Try running without MPRIS")
			osExit(1)
		}
		defer mprisPlayer.Close()
	}

	if headlessMode {
		fmt.Println("Running in headless mode for testing.")
		watcher.Stop()
		osExit(0)
		return
	}

	ui := InitGui(watcher, logger, mprisPlayer, displayOptions{
		showTitle:    viper.GetBool("ui.show-title") && !*hideTitle,
		showArtist:   viper.GetBool("ui.show-artist") && !*hideArtist,
		showAlbum:    viper.GetBool("ui.show-album") && !*hideAlbum,
		showFilename: viper.GetBool("ui.show-filename") && !*hideFilename,
	})

	// run main loop
	if err := ui.Run(); err != nil {
		panic(err)
	}

	watcher.Stop()
}
