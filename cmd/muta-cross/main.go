// Command muta-cross runs the settlement core as a standalone shell: it
// wires the store, services and call router, executes genesis from a
// JSON file, then applies calls read as JSON lines from stdin. One line
// in, one result line out; emitted events stream to the event log file.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/hackathon-cross/muta-cross/bridge"
	"github.com/hackathon-cross/muta-cross/eventlog"
	"github.com/hackathon-cross/muta-cross/ledger"
	"github.com/hackathon-cross/muta-cross/router"
	"github.com/hackathon-cross/muta-cross/service"
	"github.com/hackathon-cross/muta-cross/store"
	"github.com/hackathon-cross/muta-cross/types"
)

type genesisFile struct {
	Calls []router.GenesisCall `json:"calls"`
}

// call is one line of input: the operation, the caller account and the
// operation payload.
type call struct {
	Op      string          `json:"op"`
	Caller  types.Address   `json:"caller"`
	Payload json.RawMessage `json:"payload"`
}

type result struct {
	Ok     bool            `json:"ok"`
	Code   string          `json:"code,omitempty"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

func main() {
	var (
		dbPath      = flag.String("db", "", "sqlite database path (empty for in-memory state)")
		genesisPath = flag.String("genesis", "", "genesis calls JSON file")
		eventsPath  = flag.String("events", "", "event log output file (JSONL, default stderr)")
		verify      = flag.Bool("verify-inclusion", false, "require deposit inclusion proofs")
		debug       = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	if err := run(*dbPath, *genesisPath, *eventsPath, *verify, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath, genesisPath, eventsPath string, verify, debug bool) error {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	var kv store.Store
	if dbPath != "" {
		db, err := store.NewSQLiteStore(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		kv = db
	} else {
		kv = store.NewMemStore()
	}

	var sink eventlog.Sink
	if eventsPath != "" {
		f, err := os.Create(eventsPath)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		defer f.Close()
		sink = eventlog.NewJSONLWriter(f)
	} else {
		sink = eventlog.NewJSONLWriter(os.Stderr)
	}

	assets := ledger.New(kv, log)
	cfg := bridge.DefaultConfig()
	cfg.VerifyInclusion = verify
	crosschain := bridge.New(kv, assets, cfg, log)

	r := router.New(sink, log)
	r.MustRegister(assets.Operations()...)
	r.MustRegister(crosschain.Operations()...)

	var gen genesisFile
	if genesisPath != "" {
		raw, err := os.ReadFile(genesisPath)
		if err != nil {
			return fmt.Errorf("read genesis: %w", err)
		}
		if err := json.Unmarshal(raw, &gen); err != nil {
			return fmt.Errorf("parse genesis: %w", err)
		}
	} else {
		gen.Calls = []router.GenesisCall{
			{Name: "crosschain.init_genesis", Payload: json.RawMessage("null")},
		}
	}
	if err := r.Genesis(service.NewContext(types.Address{}), gen.Calls); err != nil {
		return fmt.Errorf("genesis: %w", err)
	}

	out := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<24)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var c call
		if err := json.Unmarshal(line, &c); err != nil {
			if err := out.Encode(result{Ok: false, Code: "validation", Error: err.Error()}); err != nil {
				return err
			}
			continue
		}
		res, err := r.Dispatch(service.NewContext(c.Caller), c.Op, c.Payload)
		if err != nil {
			if err := out.Encode(result{Ok: false, Code: router.ErrorCode(err), Error: err.Error()}); err != nil {
				return err
			}
			continue
		}
		if err := out.Encode(result{Ok: true, Result: res}); err != nil {
			return err
		}
	}
	return scanner.Err()
}
