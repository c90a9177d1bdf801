package e2e

import (
	"encoding/json"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests.
// Without a SERVER_ADDR there is nothing to talk to, so the suite skips.
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping end-to-end suite")
	}
}

// frame is the server-to-client envelope as it appears on the wire.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    string          `json:"at"`
}

// wsClient is one simulated player: a WebSocket connection plus a buffer of
// frames read but not yet claimed by a WaitFor.
type wsClient struct {
	suite   *BaseWsSuite
	name    string
	conn    *websocket.Conn
	pending []frame
}

// Connect dials the server and prints a colorized header for the player's
// steps in the logs.
func (s *BaseWsSuite) Connect(name string) *wsClient {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	u := url.URL{Scheme: "ws", Host: s.Config.ServerAddr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	s.Require().NoError(err, "Failed to connect to server at "+u.String())

	c := &wsClient{suite: s, name: name, conn: conn}
	s.T().Cleanup(c.Close)
	return c
}

// Join connects and announces the display name in one step.
func (s *BaseWsSuite) Join(name string) *wsClient {
	c := s.Connect(name)
	c.Send(map[string]any{"type": "join", "name": name})
	return c
}

func (c *wsClient) Send(action map[string]any) {
	data, err := json.Marshal(action)
	c.suite.Require().NoError(err)
	if c.suite.Config.DebugJSON {
		c.suite.T().Logf("%s >> %s", c.name, data)
	}
	c.suite.Require().NoError(c.conn.WriteMessage(websocket.TextMessage, data))
}

// WaitFor reads frames until one matches the wanted event name. Frames for
// other events are kept for later WaitFor calls, so interleaved broadcasts
// never break a scenario.
func (c *wsClient) WaitFor(t *testing.T, eventName string, timeout time.Duration) frame {
	t.Helper()

	for i, f := range c.pending {
		if f.Event == eventName {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return f
		}
	}

	deadline := time.Now().Add(timeout)
	for {
		c.suite.Require().NoError(c.conn.SetReadDeadline(deadline))
		_, data, err := c.conn.ReadMessage()
		c.suite.Require().NoError(err, "%s: no %q frame within %v", c.name, eventName, timeout)

		var f frame
		c.suite.Require().NoError(json.Unmarshal(data, &f))
		if c.suite.Config.DebugJSON {
			t.Logf("%s << %s", c.name, data)
		}
		if f.Event == eventName {
			return f
		}
		c.pending = append(c.pending, f)
	}
}

// DecodeData unmarshals the frame payload into out.
func (f frame) DecodeData(s *BaseWsSuite, out any) {
	s.Require().NoError(json.Unmarshal(f.Data, out))
}

func (c *wsClient) Close() {
	_ = c.conn.Close()
}
