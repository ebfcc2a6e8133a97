package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	flags "github.com/jessevdk/go-flags"
	jsoniter "github.com/json-iterator/go"
	"github.com/massn/envordot"
	"github.com/oklog/run"

	"github.com/qublab-team/qublab-engine/common"
	"github.com/qublab-team/qublab-engine/core"
	"github.com/qublab-team/qublab-engine/gate"
	"github.com/qublab-team/qublab-engine/optimizer"
	"github.com/qublab-team/qublab-engine/runner"
	"github.com/qublab-team/qublab-engine/sim"
	"github.com/qublab-team/qublab-engine/trace"

	"go.uber.org/dig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	rotate "github.com/lestrrat-go/file-rotatelogs"
)

var versionByBuildFlag string
var parser *flags.Parser
var engine *Engine

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	if err := envordot.Load(false, ".env"); err != nil {
		fmt.Printf("Not found \".env\" file. Use only environment variables. Reason:%s\n", err.Error())
	} else {
		fmt.Println("Found \".env\" file. Environment variables are preferred, " +
			"but non-conflicting variables are those in the \".env\" file.")
	}
	engine = &Engine{}
	setParser(engine)
}

type Engine struct {
	Conf *core.Conf
}

func setParser(e *Engine) {
	parser = flags.NewParser(e, flags.Default)
	parser.ShortDescription = "qublab engine"
	parser.LongDescription = "the simulation and variational optimization engine of the qublab circuit studio."
	parser.AddCommand("optimize", "run an experiment", "run a variational optimization experiment file", newOptimizeCmd())
	parser.AddCommand("trace", "trace a circuit", "step through a circuit descriptor file", newTraceCmd())
}

func parse() {
	if _, err := parser.Parse(); err != nil {
		code := 1
		if fe, ok := err.(*flags.Error); ok {
			if fe.Type == flags.ErrHelp {
				code = 0
			}
		}
		if code == 1 {
			fmt.Printf("failed to parse flags, because %s\n", err)
		}
		os.Exit(code)
	}
}

func provideDIContainer() (c *dig.Container, err error) {
	c = dig.New()
	err = c.Provide(func() gate.Registry { return gate.NewRegistry() })
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func(r gate.Registry) *sim.Engine { return sim.NewEngine(r) })
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func(e *sim.Engine) *trace.Tracer { return trace.New(e) })
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func() *runner.Runner { return runner.New() })
	if err != nil {
		return &dig.Container{}, err
	}
	return
}

func newOptimizer(name string, conf *core.Conf) (optimizer.Optimizer, error) {
	switch name {
	case "spsa":
		if conf.Seed != 0 {
			return optimizer.NewSPSAWithSeed(optimizer.LoadSPSASetting(), conf.Seed), nil
		}
		return optimizer.NewSPSA(optimizer.LoadSPSASetting()), nil
	case "adam":
		return optimizer.NewAdam(optimizer.LoadAdamSetting()), nil
	case "neldermead", "cobyla":
		return optimizer.NewNelderMead(optimizer.LoadNelderMeadSetting()), nil
	default:
		return nil, fmt.Errorf("%s is an unknown optimizer", name)
	}
}

func zapLogger(conf *core.Conf) (*zap.Logger, error) {
	var encoder zapcore.Encoder
	if conf.DevMode {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		c := zap.NewProductionEncoderConfig()
		c.EncodeTime = zapcore.ISO8601TimeEncoder
		c.TimeKey = "timestamp"
		encoder = zapcore.NewJSONEncoder(c)
	}
	var level zap.AtomicLevel
	switch conf.LogLevel {
	case "debug":
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cores := []zapcore.Core{}
	if conf.EnableFileLog {
		rotater, err := makeRotator(conf.LogDir, conf.LogRotationMaxDays)
		if err != nil {
			return &zap.Logger{}, err
		}
		syncer := zapcore.AddSync(rotater)
		rotateCore := zapcore.NewCore(
			encoder,
			syncer,
			level)
		cores = append(cores, rotateCore)
	}
	if !conf.DisableStdoutLog {
		debugCore := zapcore.NewCore(
			encoder,
			zapcore.Lock(os.Stdout),
			level)
		cores = append(cores, debugCore)
	}
	core := zapcore.NewTee(cores...)
	return zap.New(core, zap.AddCaller()), nil
}

func makeRotator(dirPath string, rotationMaxDays int) (*rotate.RotateLogs, error) {
	if err := common.IsDirWritable(dirPath); err != nil {
		return &rotate.RotateLogs{}, err
	}
	rotator, err := rotate.New(
		filepath.Join(dirPath, "qublab-%Y-%m-%d.log"),
		rotate.WithMaxAge(time.Duration(rotationMaxDays)*24*time.Hour),
		rotate.WithRotationTime(time.Hour))
	if err != nil {
		return &rotate.RotateLogs{}, err
	}
	return rotator, nil
}

func setZap(conf *core.Conf) *zap.Logger {
	logger, err := zapLogger(conf)
	if err != nil {
		fmt.Printf("Failed to setup logger. Reason:%s\n", err)
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	zap.L().Info("Starting logger")
	zap.L().Info(fmt.Sprintf("DevMode is %t", conf.DevMode))
	return logger
}

func setupSettings(conf *core.Conf) error {
	core.ResetSetting()
	core.RegisterSetting(optimizer.SPSA_SETTING_KEY, optimizer.NewSPSASetting())
	core.RegisterSetting(optimizer.ADAM_SETTING_KEY, optimizer.NewAdamSetting())
	core.RegisterSetting(optimizer.NELDERMEAD_SETTING_KEY, optimizer.NewNelderMeadSetting())
	if _, err := os.Stat(conf.SettingPath); err != nil {
		zap.L().Debug(fmt.Sprintf("no setting file at %s, using defaults", conf.SettingPath))
		return nil
	}
	if err := core.ParseSettingFromPath(conf.SettingPath); err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse settings/reason:%s", err))
		return err
	}
	return nil
}

func main() {
	parse()
}

type optimizeCmd struct {
	ExperimentPath string `long:"experiment" short:"e" description:"experiment file path" required:"true"`
}

func newOptimizeCmd() *optimizeCmd {
	return &optimizeCmd{}
}

func (c *optimizeCmd) Execute(args []string) error {
	logger := setZap(engine.Conf)
	defer logger.Sync()
	core.SetVersion(engine.Conf, versionByBuildFlag)
	if err := setupSettings(engine.Conf); err != nil {
		return err
	}
	container, err := provideDIContainer()
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setting up DI-Container. Reason:%s", err.Error()))
		return err
	}

	exp, err := runner.LoadExperiment(c.ExperimentPath)
	if err != nil {
		return err
	}
	opt, err := newOptimizer(exp.Optimizer, engine.Conf)
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to select optimizer. Reason:%s", err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g run.Group
	g.Add(run.SignalHandler(ctx, os.Interrupt))
	g.Add(func() error {
		return container.Invoke(func(e *sim.Engine, r *runner.Runner) error {
			runRecord, err := exp.ToRun(e, opt)
			if err != nil {
				return err
			}
			if err := r.Submit(runRecord); err != nil {
				return err
			}
			done, err := r.ProcessAll(ctx)
			for _, d := range done {
				if d.Result != nil {
					fmt.Println(d.Result.String())
				}
			}
			return err
		})
	}, func(error) {
		cancel()
	})

	if err := g.Run(); err != nil {
		if _, ok := err.(run.SignalError); ok {
			zap.L().Info(fmt.Sprintf("stopped by signal: %s", err))
			return nil
		}
		zap.L().Error(fmt.Sprintf("execution error:%s", err))
		return err
	}
	return nil
}

type traceCmd struct {
	CircuitPath string `long:"circuit" short:"c" description:"circuit descriptor file path" required:"true"`
}

func newTraceCmd() *traceCmd {
	return &traceCmd{}
}

func (c *traceCmd) Execute(args []string) error {
	logger := setZap(engine.Conf)
	defer logger.Sync()
	core.SetVersion(engine.Conf, versionByBuildFlag)

	container, err := provideDIContainer()
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setting up DI-Container. Reason:%s", err.Error()))
		return err
	}
	content, err := common.ReadFile(c.CircuitPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read circuit file/path:%s/reason:%s", c.CircuitPath, err))
		return err
	}
	circ, err := core.UnmarshalCircuitDescriptor(content)
	if err != nil {
		return err
	}
	return container.Invoke(func(t *trace.Tracer) error {
		steps, err := t.StepThrough(circ)
		if err != nil {
			zap.L().Error(fmt.Sprintf("failed to trace circuit. Reason:%s", err))
			return err
		}
		for i, s := range steps {
			st, err := jsonIter.Marshal(s)
			if err != nil {
				return err
			}
			fmt.Printf("step %d: %s\n", i, string(st))
		}
		return nil
	})
}
