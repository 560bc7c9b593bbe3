package main

import (
	"github.com/vigilcam/ptzd/internal/api"
	"github.com/vigilcam/ptzd/internal/api/ws"
	"github.com/vigilcam/ptzd/internal/app"
	"github.com/vigilcam/ptzd/internal/mqtt"
	"github.com/vigilcam/ptzd/internal/ptz"
	"github.com/vigilcam/ptzd/pkg/shell"
)

func main() {
	app.Init() // init config and logs

	api.Init() // init HTTP API server
	ws.Init()  // init WebSocket API (depends on API)

	ptz.Init()  // load monitors, PTZ commands API (depends on API)
	mqtt.Init() // MQTT commands (depends on PTZ)

	sig := shell.RunUntilSignal()
	app.Logger.Info().Str("signal", sig.String()).Msg("exit")
}
