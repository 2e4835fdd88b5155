package main

import (
	"flag"
	"log"
	"os"

	"github.com/mailtools/gmail-autoresponder/autoresponder"
)

func main() {
	ponce := flag.Bool("once", false, "Run a single check cycle and exit")
	pvalidate := flag.Bool("validate", false, "Validate credentials, rules and templates, then exit")
	ptest := flag.Bool("test-mode", false, "Log intended responses without creating them")
	pdraft := flag.Bool("draft-mode", false, "Create drafts instead of sending")
	psend := flag.Bool("send-mode", false, "Send responses directly")

	flag.Parse()

	config, err := autoresponder.ParseConfig(os.Getenv(autoresponder.EnvConfig))
	if err != nil {
		log.Fatal("Couldn't parse AUTORESPONDER_CONFIG string", err)
	}

	if *ptest {
		config.TestMode = true
	}
	if *pdraft {
		config.TestMode = false
		config.DraftMode = true
	}
	if *psend {
		config.TestMode = false
		config.DraftMode = false
	}

	switch {
	case *pvalidate:
		if err := autoresponder.ValidateSetup(config); err != nil {
			log.Fatalf("Setup validation failed: %+v", err)
		}
		log.Print("Setup validation passed")
	case *ponce:
		if err := autoresponder.RunOnce(config); err != nil {
			log.Fatalf("Check cycle failed: %+v", err)
		}
	default:
		log.Fatal(autoresponder.RunContinuously(config))
	}
}
