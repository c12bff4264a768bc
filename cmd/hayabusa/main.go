package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/hayabusa-shogi/hayabusa/pkg/engine"
	"github.com/hayabusa-shogi/hayabusa/pkg/eval"
	"github.com/hayabusa-shogi/hayabusa/pkg/usi"
)

const (
	name   = "Hayabusa"
	author = "Hayabusa team"
)

var (
	versionName = "dev"
	flgDebug    bool
)

func main() {
	flag.BoolVar(&flgDebug, "debug", false, "enable debug logging")
	flag.Parse()

	var level = zerolog.InfoLevel
	if flgDebug {
		level = zerolog.DebugLevel
	}
	var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	logger.Info().
		Str("version", versionName).
		Str("runtime", runtime.Version()).
		Int("numCPU", runtime.NumCPU()).
		Msg(name)

	var eng = engine.NewEngine(eval.NewEvaluationService(), logger)

	var protocol = usi.New(name, author, versionName, eng, logger,
		[]usi.Option{
			&usi.IntOption{Name: "USI_Hash", Min: 4, Max: 1 << 16, Value: &eng.Options.Hash},
			&usi.BoolOption{Name: "USI_Ponder", Value: &eng.Options.Ponder},
			&usi.IntOption{Name: "Threads", Min: 1, Max: runtime.NumCPU(), Value: &eng.Options.Threads},
			&usi.IntOption{Name: "BucketSize", Min: 4, Max: 16, Value: &eng.Options.BucketSize},
			&usi.IntOption{Name: "MoveOverhead", Min: 0, Max: 10000, Value: &eng.Options.MoveOverheadMs},
			&usi.IntOption{Name: "ByoyomiPeriods", Min: 1, Max: 10, Value: &eng.Options.ByoyomiPeriods},
			&usi.IntOption{Name: "PVStabilityBase", Min: 0, Max: 10000, Value: &eng.Options.PVBaseThresholdMs},
			&usi.IntOption{Name: "PVStabilitySlope", Min: 0, Max: 1000, Value: &eng.Options.PVDepthSlopeMs},
			&usi.BoolOption{Name: "AspirationWindows", Value: &eng.Options.AspirationWindows},
			&usi.BoolOption{Name: "NullMovePruning", Value: &eng.Options.NullMovePruning},
			&usi.BoolOption{Name: "Razoring", Value: &eng.Options.Razoring},
			&usi.BoolOption{Name: "IID", Value: &eng.Options.IID},
			&usi.BoolOption{Name: "ProbCut", Value: &eng.Options.Probcut},
			&usi.BoolOption{Name: "LMR", Value: &eng.Options.Lmr},
			&usi.BoolOption{Name: "LMP", Value: &eng.Options.Lmp},
			&usi.BoolOption{Name: "Futility", Value: &eng.Options.Futility},
			&usi.BoolOption{Name: "SEEPruning", Value: &eng.Options.See},
			&usi.BoolOption{Name: "CheckExtension", Value: &eng.Options.CheckExt},
			&usi.BoolOption{Name: "SingularExtension", Value: &eng.Options.SingularExt},
		},
	)
	protocol.Run()
}
