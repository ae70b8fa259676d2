// Package main serves interactive markers for a robot arm described by a kinematic model file.
//
// Clients connect over HTTP or WebSocket (and optionally MQTT), drag the markers, and the arm's
// maintained state follows along via inverse kinematics.
package main

import (
	"context"
	"flag"
	"net/http"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/armature-robotics/interaction/interaction"
	frame "github.com/armature-robotics/interaction/referenceframe"
	"github.com/armature-robotics/interaction/web/markers"
)

var logger = golog.NewDevelopmentLogger("markercontrol")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var (
		addr        string
		handlerName string
		mqttBroker  string
		mqttTopic   string
	)
	flag.StringVar(&addr, "addr", ":8181", "address to serve the marker API on")
	flag.StringVar(&handlerName, "name", "right", "name of the interaction handler")
	flag.StringVar(&mqttBroker, "mqtt-broker", "", "optional MQTT broker URL carrying feedback, e.g. tcp://localhost:1883")
	flag.StringVar(&mqttTopic, "mqtt-topic", markers.DefaultFeedbackTopic, "MQTT feedback topic")
	flag.Parse()
	if flag.Arg(0) == "" {
		return errors.New("usage: markercontrol [flags] <model.json>")
	}

	model, err := frame.ParseModelJSONFile(flag.Arg(0), "")
	if err != nil {
		return err
	}

	ri := interaction.NewRobotInteraction(logger)
	defer func() {
		utils.UncheckedError(ri.Close(context.Background()))
	}()

	h := interaction.NewHandler(handlerName, interaction.NewRobotState(model), logger)
	h.SetUpdateCallback(func(handler *interaction.Handler, errorStateChanged bool) {
		if errorStateChanged {
			logger.Infow("marker error state changed", "handler", handler.Name())
		}
	})

	menu := interaction.NewMenuHandler()
	menu.Insert("Reset arm", func(handler *interaction.Handler, _ *interaction.Feedback) {
		handler.SetState(interaction.NewRobotState(model))
		handler.ClearLastMarkerPoses()
		handler.ClearError()
		logger.Infow("arm reset", "handler", handler.Name())
	})
	h.SetMenuHandler(menu)

	ri.AddHandler(h)
	ri.DecideActiveComponents(h.State())

	server := markers.NewServer(ri, logger)
	defer func() {
		utils.UncheckedError(server.Close(context.Background()))
	}()

	if mqttBroker != "" {
		source, err := markers.NewMQTTSource(markers.MQTTSourceConfig{
			Broker:   mqttBroker,
			ClientID: "markercontrol",
			Topic:    mqttTopic,
		}, ri, logger)
		if err != nil {
			return err
		}
		defer source.Close()
	}

	logger.Infow("serving markers", "addr", addr, "group", model.Name())
	serveErr := make(chan error, 1)
	utils.PanicCapturingGo(func() {
		serveErr <- server.Start(addr)
	})

	select {
	case <-ctx.Done():
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
