//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/ptgbot/core/chat"
)

func startMosquitto(t *testing.T) string {
	t.Helper()
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	conf := filepath.Join(t.TempDir(), "mosquitto.conf")
	if err := os.WriteFile(conf, []byte("listener 1883\nallow_anonymous true\npersistence false\n"), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}
	ctx := context.Background()
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
			Files: []tc.ContainerFile{{
				HostFilePath:      conf,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0644,
			}},
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

// TestBridgeIntegration runs a message round trip through a real broker,
// with a plain paho client standing in for the chat gateway.
func TestBridgeIntegration(t *testing.T) {
	broker := startMosquitto(t)

	var bridge *Bridge
	var err error
	for i := 0; i < 5; i++ {
		bridge, err = NewBridge(Config{Broker: broker, TopicPrefix: "it", SendIntervalMS: -1})
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	defer bridge.Disconnect()

	gw := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("gateway"))
	if tok := gw.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("gateway connect: %v", tok.Error())
	}
	defer gw.Disconnect(250)

	replies := make(chan string, 1)
	gw.Subscribe("it/out", 1, func(_ paho.Client, m paho.Message) {
		var out outbound
		if json.Unmarshal(m.Payload(), &out) == nil {
			replies <- out.Text
		}
	}).Wait()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = bridge.Run(ctx, func(ctx context.Context, ev chat.Event) {
			_ = bridge.Send(ctx, ev.Channel, ev.Sender+": pong")
		})
	}()

	gw.Publish("it/in", 1, false, `{"sender":"alice","channel":"#ptg","text":"ping","identified":true}`).Wait()

	select {
	case got := <-replies:
		if got != "alice: pong" {
			t.Fatalf("unexpected reply %q", got)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for reply")
	}
}
