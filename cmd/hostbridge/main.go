package main

import (
	"flag"
	"log"

	"github.com/ehrlich-b/microkern/boot"
	"github.com/ehrlich-b/microkern/internal/arch"
	"github.com/ehrlich-b/microkern/internal/logging"
	"github.com/ehrlich-b/microkern/kernel"
)

func main() {
	logPath := flag.String("log", "hostbridge.log", "path console bytes are piped to")
	arenaBytes := flag.Int("arena-bytes", 64*1024, "size of the shared flat address space")
	flag.Parse()

	w, err := newUringWriter(*logPath)
	if err != nil {
		log.Fatalf("hostbridge: %v", err)
	}
	defer w.Close()

	sw := arch.NewFakeSwitcher()
	kcfg := kernel.DefaultConfig()
	mem := make(boot.FlatMemory, *arenaBytes)

	sys, err := boot.Bootstrap(kcfg, kcfg.NumTasks, sw, logging.Default(), w, mem)
	if err != nil {
		log.Fatalf("hostbridge: bootstrap failed: %v", err)
	}

	log.Printf("hostbridge: kernel booted, piping console output to %s", *logPath)
	sys.Scheduler.Start()
}
