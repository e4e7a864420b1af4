// Command consume is a reference consumer: it dials a relay's Unix domain
// socket, performs the consumer handshake for a set of topics, and logs
// every message it receives, decoded down to its header and TLV types.
package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"protocol-v2/core"
	"protocol-v2/transport"
)

func main() {
	var (
		socket string
		topics string
	)
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "subscribe to a relay's topics and log received messages",
		Run: func(cmd *cobra.Command, args []string) {
			topicList := splitTopics(topics)
			if err := run(socket, topicList); err != nil {
				logrus.WithError(err).Fatal("consume: fatal error")
			}
		},
	}
	cmd.Flags().StringVar(&socket, "socket", "/tmp/protocol-v2-relay.sock", "relay Unix domain socket path")
	cmd.Flags().StringVar(&topics, "topics", "", "comma-separated topic names to subscribe to")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func splitTopics(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	topics := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			topics = append(topics, p)
		}
	}
	return topics
}

func run(socket string, topics []string) error {
	ctx := context.Background()
	conn, err := transport.NewUnixDialer().Dial(ctx, socket)
	if err != nil {
		return err
	}
	defer conn.Close()

	handshake := struct {
		Role   string   `json:"role"`
		Topics []string `json:"topics"`
	}{Role: "consumer", Topics: topics}
	frame, err := json.Marshal(handshake)
	if err != nil {
		return err
	}
	if err := conn.Send(ctx, frame); err != nil {
		return err
	}

	logrus.WithField("topics", topics).Info("consume: subscribed")

	for {
		message, err := conn.Recv(ctx)
		if err != nil {
			return err
		}
		logMessage(message)
	}
}

func logMessage(message []byte) {
	header, err := core.ParseHeader(message, core.ValidationPolicy{})
	if err != nil {
		logrus.WithError(err).Warn("consume: failed to parse header")
		return
	}
	records, err := core.ParseTLVs(message[core.HeaderSize:])
	if err != nil {
		logrus.WithError(err).Warn("consume: failed to parse TLV payload")
		return
	}
	types := make([]string, 0, len(records))
	for _, rec := range records {
		types = append(types, rec.Type.String())
	}
	logrus.WithFields(logrus.Fields{
		"source":   header.Source.String(),
		"domain":   header.Domain.String(),
		"sequence": header.Sequence,
		"types":    types,
	}).Info("consume: message received")
}
