// Command relay runs a single-domain relay process: it accepts producer
// and consumer connections over a Unix domain socket, validates and
// routes messages per the configured domain policy, and exposes
// health/stats over HTTP.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"protocol-v2/adminhttp"
	"protocol-v2/core"
	"protocol-v2/pkg/relayconfig"
	"protocol-v2/relay"
	"protocol-v2/transport"
)

func main() {
	// Load environment variables from a project .env if present.
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	rootCmd := &cobra.Command{Use: "relay"}
	rootCmd.AddCommand(startCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func startCmd() *cobra.Command {
	var env string
	var topicsFile string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "run a relay process for one domain",
		Run: func(cmd *cobra.Command, args []string) {
			if err := run(env, topicsFile); err != nil {
				logrus.WithError(err).Fatal("relay: fatal error")
			}
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "environment overlay to merge (e.g. production)")
	cmd.Flags().StringVar(&topicsFile, "topics-file", "", "YAML file of fine-grained topic filters (overrides relay.topics)")
	return cmd
}

func run(env, topicsFile string) error {
	cfg, err := relayconfig.Load(env)
	if err != nil {
		return err
	}
	policy, err := cfg.DomainPolicy()
	if err != nil {
		return err
	}

	topics := cfg.TopicFilters()
	if topicsFile != "" {
		topics, err = relayconfig.LoadTopicFilters(topicsFile)
		if err != nil {
			return err
		}
	}

	r := relay.NewRelay(policy, topics, logrus.StandardLogger())

	admin := adminhttp.NewServer(cfg.Relay.AdminAddr, r)
	go func() {
		if err := admin.Start(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("relay: admin server stopped")
		}
	}()

	ln, err := transport.ListenUnix(cfg.Relay.ListenAddr)
	if err != nil {
		return err
	}
	defer ln.Close()

	logrus.WithFields(logrus.Fields{
		"domain":      cfg.Relay.Domain,
		"listen_addr": cfg.Relay.ListenAddr,
		"admin_addr":  cfg.Relay.AdminAddr,
	}).Info("relay: listening")

	ctx := context.Background()
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			logrus.WithError(err).Error("relay: accept failed")
			continue
		}
		go handleConn(ctx, r, conn)
	}
}

// handshake is the single JSON frame a connection must send before any
// protocol messages: it tells the relay whether the peer is a producer
// (and which source it is) or a consumer (and which topics it wants).
type handshake struct {
	Role   string   `json:"role"`
	Source string   `json:"source,omitempty"`
	Topics []string `json:"topics,omitempty"`
}

func handleConn(ctx context.Context, r *relay.Relay, conn transport.Conn) {
	frame, err := conn.Recv(ctx)
	if err != nil {
		logrus.WithError(err).Warn("relay: handshake read failed")
		_ = conn.Close()
		return
	}
	var hs handshake
	if err := json.Unmarshal(frame, &hs); err != nil {
		logrus.WithError(err).Warn("relay: malformed handshake")
		_ = conn.Close()
		return
	}

	switch hs.Role {
	case "producer":
		handleProducer(ctx, r, conn, hs.Source)
	case "consumer":
		handleConsumer(ctx, r, conn, hs.Topics)
	default:
		logrus.WithField("role", hs.Role).Warn("relay: unknown handshake role")
		_ = conn.Close()
	}
}

func handleProducer(ctx context.Context, r *relay.Relay, conn transport.Conn, sourceName string) {
	defer conn.Close()
	source, err := core.ParseSourceType(sourceName)
	if err != nil {
		logrus.WithError(err).Warn("relay: producer handshake rejected")
		return
	}
	if _, err := r.AcceptProducer(source); err != nil {
		logrus.WithError(err).Warn("relay: producer accept rejected")
		return
	}
	logrus.WithField("source", source.String()).Info("relay: producer connected")

	for {
		message, err := conn.Recv(ctx)
		if err != nil {
			break
		}
		if _, err := r.HandleInbound(message); err != nil {
			logrus.WithError(err).Debug("relay: inbound message rejected")
		}
	}

	invalidations := r.DisconnectProducer(source)
	if len(invalidations) > 0 {
		if err := r.BroadcastStateInvalidations(invalidations); err != nil {
			logrus.WithError(err).Warn("relay: failed to broadcast state invalidations")
		}
	}
	logrus.WithField("source", source.String()).Warn("relay: producer disconnected")
}

func handleConsumer(ctx context.Context, r *relay.Relay, conn transport.Conn, topics []string) {
	defer conn.Close()
	_, queue, err := r.AcceptConsumer(topics)
	if err != nil {
		logrus.WithError(err).Warn("relay: consumer accept rejected")
		return
	}
	logrus.WithField("topics", topics).Info("relay: consumer connected")

	for message := range queue {
		if err := conn.Send(ctx, message); err != nil {
			logrus.WithError(err).Warn("relay: consumer send failed")
			return
		}
	}
}
