package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/massn/envordot"
	"github.com/oklog/run"
	"github.com/tidwall/pretty"

	"github.com/qonduit-team/qonduit-engine/api"
	"github.com/qonduit-team/qonduit-engine/conversion"
	"github.com/qonduit-team/qonduit-engine/core"
	"github.com/qonduit-team/qonduit-engine/db"
	"github.com/qonduit-team/qonduit-engine/log"
	"github.com/qonduit-team/qonduit-engine/poller"
	"github.com/qonduit-team/qonduit-engine/qpu"
	"github.com/qonduit-team/qonduit-engine/sampling"
	"github.com/qonduit-team/qonduit-engine/scheduler"
	"github.com/qonduit-team/qonduit-engine/transpiler"
	"github.com/qonduit-team/qonduit-engine/unitary"

	"go.uber.org/dig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	rotate "github.com/lestrrat-go/file-rotatelogs"
)

var versionByBuildFlag string
var parser *flags.Parser
var engine *Engine

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
	DIContainerParameters *DIContainerParameters
	Conf                  *core.Conf
}

type DIContainerParameters struct {
	DBManager  string `long:"db" description:"db" default:"memory" choice:"memory" choice:"service" env:"QONDUIT_ENGINE_DB_MANAGER_TYPE"`
	Transpiler string `long:"transpiler" description:"transpiler-type" default:"local" choice:"local" env:"QONDUIT_ENGINE_TRANSPILER_TYPE"`
	QPU        string `long:"qpu" description:"qpu-type" default:"dummy" choice:"dummy" choice:"remote" env:"QONDUIT_ENGINE_QPU_TYPE"`
	Scheduler  string `long:"scheduler" description:"scheduler-type" default:"normal" env:"QONDUIT_ENGINE_SCHEDULER_TYPE"`
}

func setParser(engine *Engine) {
	parser = flags.NewParser(engine, flags.Default)
	parser.ShortDescription = "qonduit engine"
	parser.LongDescription = "the circuit conversion and job execution engine of the qonduit cloud quantum computation system."
	parser.AddCommand("serve", "start the engine", "start polling to get jobs and serve the HTTP API", newServeCmd())
	parser.AddCommand("convert", "convert a circuit", "convert a circuit program to other packages in one shot", newConvertCmd())
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

func (e *Engine) provideDIContainer() (c *dig.Container, err error) {
	c = dig.New()
	err = nil
	err = c.Provide(func() (core.QPUManager, error) {
		switch e.DIContainerParameters.QPU {
		case "dummy":
			return &qpu.DummyQPU{}, nil
		case "remote":
			return &qpu.RemoteQPU{}, nil
		default:
			return &qpu.DummyQPU{}, fmt.Errorf("%s is an unknown QPU", e.DIContainerParameters.QPU)
		}
	})
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func() (core.Transpiler, error) {
		switch e.DIContainerParameters.Transpiler {
		case "local":
			return &transpiler.Engine{}, nil
		default:
			return &transpiler.Engine{}, fmt.Errorf("%s is an unknown Transpiler", e.DIContainerParameters.Transpiler)
		}
	})
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func() core.Scheduler { return &scheduler.NormalScheduler{} })
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func() (core.DBManager, error) {
		switch e.DIContainerParameters.DBManager {
		case "memory":
			return &core.MemoryDB{}, nil
		case "service":
			return &db.ServiceDB{}, nil
		default:
			return &core.MemoryDB{}, fmt.Errorf("%s is an unknown DB", e.DIContainerParameters.DBManager)
		}
	})
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func() core.APIRouter { return &api.Router{} })
	if err != nil {
		return &dig.Container{}, err
	}
	return
}

func (e *Engine) startCore() error {
	if _, err := core.NewJobManager(
		&core.NormalJob{},
		&sampling.SamplingJob{},
		&conversion.ConversionJob{},
	); err != nil {
		return err
	}
	return core.GetSystemComponents().StartContainer()
}

func zapLogger(conf *core.Conf) (*zap.Logger, error) {
	var encoder zapcore.Encoder
	if conf.DevMode {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		c := zap.NewProductionEncoderConfig()
		c.EncodeTime = zapcore.ISO8601TimeEncoder //Not use UnixTime
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
	info, err := os.Stat(dirPath)
	if err != nil {
		return &rotate.RotateLogs{}, fmt.Errorf("directory:%s is not found", dirPath)
	}
	if info.Mode().Perm()&(1<<uint(7)) == 0 {
		return &rotate.RotateLogs{}, fmt.Errorf("%s is not a writable directory", dirPath)
	}
	rotator, err := rotate.New(
		filepath.Join(dirPath, "qonduit-engine-%Y-%m-%d.log"),
		rotate.WithMaxAge(time.Duration(rotationMaxDays)*24*time.Hour),
		rotate.WithRotationTime(time.Hour))
	if err != nil {
		return &rotate.RotateLogs{}, err
	}
	return rotator, nil
}

func main() {
	parse()
}

type serveCmd struct{}

func newServeCmd() *serveCmd {
	return &serveCmd{}
}

func (c *serveCmd) Execute(args []string) error {
	logger := setZap(engine.Conf)
	defer logger.Sync()

	core.ResetSetting()
	registerSetting()
	zap.L().Debug("Registered setting")
	if err := core.ParseSettingFromPath(engine.Conf.SettingPath); err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse settings/reason:%s", err))
		return err
	}

	s := setupSystemComponents(engine.Conf)
	defer s.TearDown()
	// the api server reads the configured port through CurrentInfo
	core.SetInfo(engine.Conf)

	im := &core.ImplMaps{
		PeriodicTaskImplMap: core.PeriodicTaskImplMap{
			poller.PollerTaskName:  &poller.Poller{},
			log.VersionLogTaskName: &log.VersionLogTaskImpl{},
			log.MetricsLogTaskName: &log.MetricsLogTaskImpl{},
		},
		APIServerImplMap: core.APIServerImplMap{
			api.APIServerName: &api.Server{},
		},
	}
	rc, err := core.NewRunContextWithSettingPath(engine.Conf.SettingPath, im)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to setup run context/reason:%s", err.Error()))
		return err
	}

	if err := engine.startCore(); err != nil {
		zap.L().Error(fmt.Sprintf("Failed to start the core. Reason:%s", err))
		return err
	}

	zap.L().Debug("Setting up run-group")
	if err := c.setupRunGroup(rc); err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setup run group. Reason:%s", err))
		return err
	}

	if err := rc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "execution error:%v\n", err)
		os.Exit(1)
	}

	return nil
}

func (c *serveCmd) setupRunGroup(rc *core.RunContext) error {
	rc.Add(
		run.SignalHandler(
			rc.Context,
			os.Interrupt))
	core.SetRunContext(rc)
	return nil
}

// TODO : move to log package
func setZap(conf *core.Conf) *zap.Logger {
	logger, err := zapLogger(conf)
	if err != nil {
		fmt.Printf("Failed to setup logger. Reason:%s\n", err)
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	zap.L().Info("Starting logger")
	zap.L().Info(fmt.Sprintf("DevMode is %t", conf.DevMode))
	zap.L().Info(fmt.Sprintf("Log rotation max days is %d", conf.LogRotationMaxDays))
	return logger
}

func setupSystemComponents(conf *core.Conf) *core.SystemComponents {
	core.SetVersion(conf, versionByBuildFlag)
	zap.L().Debug(fmt.Sprintf("Providing DI Container with parameters %+v", engine.DIContainerParameters))

	container, err := engine.provideDIContainer()
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setting up DI-Container. Reason:%s", err.Error()))
		panic(err)
	}
	zap.L().Debug("Setting up System Components")
	s := core.NewSystemComponents(container)
	if err := s.Setup(conf); err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setting up Container. Reason:%s", err.Error()))
		panic(err)
	}
	return s
}

func registerSetting() {
	core.RegisterSetting(transpiler.TRANSPILER_SETTING_KEY, transpiler.NewEngineSetting())
}

const verifyTolerance = 1e-7

type convertCmd struct {
	Source string   `long:"source" short:"s" description:"source package, detected from the program when empty"`
	Target []string `long:"target" short:"t" required:"true" description:"target package, repeat for multiple targets"`
	Output string   `long:"output" short:"o" description:"output file, stdout when empty"`
	Verify bool     `long:"verify" description:"check unitary equivalence of every converted program"`
	Args   struct {
		File string `positional-arg-name:"file" description:"program file, stdin when omitted"`
	} `positional-args:"yes"`
}

func newConvertCmd() *convertCmd {
	return &convertCmd{}
}

func (c *convertCmd) Execute(args []string) error {
	logger := setZap(engine.Conf)
	defer logger.Sync()

	program, err := c.readProgram()
	if err != nil {
		return err
	}
	src := transpiler.Package(c.Source)
	if c.Source == "" {
		src, err = transpiler.DetectPackage(program)
		if err != nil {
			return err
		}
		zap.L().Debug(fmt.Sprintf("Detected the source package %s", src))
	}
	w, err := transpiler.Wrap(src, program)
	if err != nil {
		return err
	}
	results := make(map[string]string, len(c.Target))
	for _, target := range c.Target {
		tw, err := w.Transpile(transpiler.Package(target))
		if err != nil {
			return err
		}
		if c.Verify {
			same, verr := unitary.CircuitsAllClose(
				src, program, transpiler.Package(target), tw.Text(), verifyTolerance)
			if verr != nil {
				return verr
			}
			if !same {
				return fmt.Errorf("unitary mismatch between %s and %s programs", src, target)
			}
		}
		results[target] = tw.Text()
	}
	out, err := c.renderOutput(results)
	if err != nil {
		return err
	}
	return c.writeOutput(out)
}

func (c *convertCmd) readProgram() (string, error) {
	if c.Args.File != "" {
		b, err := os.ReadFile(c.Args.File)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// renderOutput emits the program itself for a single target and a
// pretty-printed target-to-program JSON object for multiple targets.
func (c *convertCmd) renderOutput(results map[string]string) ([]byte, error) {
	if len(c.Target) == 1 {
		return []byte(results[c.Target[0]]), nil
	}
	b, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(b), nil
}

func (c *convertCmd) writeOutput(out []byte) error {
	if c.Output == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(c.Output, out, 0644)
}
