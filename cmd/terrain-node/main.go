// Узел террейна распределенной косимуляции: слушает подключения рангов
// машины и шин, осаживает гранулярный материал (или восстанавливает его
// из контрольной точки), после чего шаг за шагом обменивается
// состоянием сеток и контактными силами.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"x-terrain/internal/config"
	"x-terrain/internal/cosim"
	"x-terrain/internal/physics/smc"
	"x-terrain/internal/transport"
	"x-terrain/internal/transport/ws"
)

func main() {
	var (
		configPath    = flag.String("config", "", "путь к конфигурационному файлу")
		printExample  = flag.Bool("example", false, "напечатать пример конфигурации и выйти")
		tires         = flag.Int("tires", 0, "число рангов шин (переопределяет конфиг)")
		useCheckpoint = flag.Bool("checkpoint", false, "стартовать из контрольной точки")
		listen        = flag.String("listen", "", "адрес слушателя (переопределяет конфиг)")
	)
	flag.Parse()

	if *printExample {
		fmt.Print(config.ExampleFile)
		return
	}

	logger := log.New(os.Stdout, "[TerrainNode] ", log.LstdFlags)

	var file *config.File
	var err error
	if *configPath != "" {
		file, err = config.Load(*configPath)
	} else {
		file, err = config.Parse(config.ExampleFile)
	}
	if err != nil {
		logger.Fatal(err)
	}

	cfg, err := file.NodeConfig()
	if err != nil {
		logger.Fatal(err)
	}
	if *tires > 0 {
		cfg.Tires = *tires
	}
	if *useCheckpoint {
		cfg.UseCheckpoint = true
	}

	addr := file.Transport.Listen
	if *listen != "" {
		addr = *listen
	}

	for _, dir := range []string{cfg.OutDir, cfg.NodeOutDir} {
		if dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				logger.Fatal(err)
			}
		}
	}

	engine := smc.New()

	// Пиры: машина и все шины.
	peers := []int{transport.VehicleRank}
	for i := 0; i < cfg.Tires; i++ {
		peers = append(peers, transport.TireRank(i))
	}

	logger.Printf("слушаю %s, жду %d пиров", addr, len(peers))
	conn, err := ws.Listen(addr, transport.TerrainRank(cfg.Tires), peers,
		log.New(os.Stdout, "[Transport] ", log.LstdFlags))
	if err != nil {
		logger.Fatal(err)
	}
	defer conn.Close()

	node := cosim.NewNode(cfg, engine, conn, logger)

	if cfg.Type == cosim.Granular {
		if err := node.Settle(); err != nil {
			logger.Fatal(err)
		}
		// Свежеосажденную упаковку сразу сохраняем для рестартов.
		if !cfg.UseCheckpoint && file.Run.WriteCheckpoint && cfg.OutDir != "" {
			if err := node.WriteCheckpoint(); err != nil {
				logger.Fatal(err)
			}
		}
	}

	if err := node.Initialize(); err != nil {
		logger.Fatal(err)
	}

	syncStep := file.Run.SyncStep
	if syncStep <= 0 {
		syncStep = 4e-3
	}
	outputFPS := file.Run.OutputFPS
	if outputFPS <= 0 {
		outputFPS = 100
	}

	numSteps := int(math.Ceil(file.Run.Duration / syncStep))
	outputSteps := int(math.Ceil(1 / (outputFPS * syncStep)))

	frame := 0
	for is := 0; is < numSteps; is++ {
		t := float64(is) * syncStep
		if err := node.Synchronize(is, t); err != nil {
			logger.Print(err)
			conn.Abort(1)
		}
		node.Advance(syncStep)

		if is%outputSteps == 0 {
			if err := node.OutputData(frame); err != nil {
				logger.Printf("вывод кадра %d: %v", frame, err)
			}
			frame++
		}
	}

	if cfg.Type == cosim.Granular && file.Run.WriteCheckpoint && cfg.OutDir != "" {
		if err := node.WriteCheckpoint(); err != nil {
			logger.Print(err)
		}
	}

	logger.Printf("готово: %d шагов, время в движке %v", numSteps, node.CumSimTime())
}
