/*
Package config loads registry settings from YAML or JSON files and the
environment.

# Overview

Config is a read-only tree of values addressed by dotted paths
("report_store.driver"). Typed accessors return a default for missing
paths and unreadable values. Settings is the registry configuration
extracted from a Config.

# Basic Usage

	settings, err := config.Load("refcount.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	store, err := settings.OpenStore()
	if err != nil {
	    log.Fatal(err)
	}

	reg := refcount.New[alloc.Handle](
	    refcount.WithSettings(settings),
	    refcount.WithLogger(settings.NewLogger(os.Stderr)),
	    refcount.WithReportStore(store),
	)

# Example File

	name: tensors
	diagnostic_mode: true
	strict_mode: false
	metrics: true
	log_level: debug
	report_store:
	  driver: pebble
	  path: ./reports

# Environment

Load overlays variables prefixed with REFCOUNT_ on top of the file. A
double underscore separates section and key:

	REFCOUNT_STRICT_MODE=true
	REFCOUNT_REPORT_STORE__DRIVER=sqlite
	REFCOUNT_REPORT_STORE__PATH=/var/lib/app/reports.db

# Thread Safety

Config is safe for concurrent read access. Merge returns a new Config and
never modifies its inputs.
*/
package config
