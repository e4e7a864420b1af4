// Command produce is a reference producer: it dials a relay's Unix domain
// socket, performs the producer handshake, and streams synthetic TradeTLV
// ticks for a single instrument at a fixed interval.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"protocol-v2/core"
	"protocol-v2/pkg/utils"
	"protocol-v2/transport"
)

func main() {
	var (
		socket   string
		source   string
		venue    string
		symbol   string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "produce",
		Short: "stream synthetic trade ticks to a relay",
		Run: func(cmd *cobra.Command, args []string) {
			if err := run(socket, source, venue, symbol, interval); err != nil {
				logrus.WithError(err).Fatal("produce: fatal error")
			}
		},
	}
	cmd.Flags().StringVar(&socket, "socket", "/tmp/protocol-v2-relay.sock", "relay Unix domain socket path")
	cmd.Flags().StringVar(&source, "source", "binance_collector", "producer source identity")
	cmd.Flags().StringVar(&venue, "venue", "binance", "venue name for the synthetic instrument")
	cmd.Flags().StringVar(&symbol, "symbol", "BTC", "coin symbol for the synthetic instrument")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "tick interval")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(socket, sourceName, venueName, symbol string, interval time.Duration) error {
	source, err := core.ParseSourceType(sourceName)
	if err != nil {
		return err
	}
	venueID, err := core.ParseVenueId(venueName)
	if err != nil {
		return err
	}

	ctx := context.Background()
	conn, err := transport.NewUnixDialer().Dial(ctx, socket)
	if err != nil {
		return err
	}
	defer conn.Close()

	handshake := struct {
		Role   string `json:"role"`
		Source string `json:"source"`
	}{Role: "producer", Source: sourceName}
	frame, err := json.Marshal(handshake)
	if err != nil {
		return err
	}
	if err := conn.Send(ctx, frame); err != nil {
		return err
	}

	instrument := core.Coin(venueID, symbol)
	builder := core.NewBuilder(core.DomainMarketData, source)

	logrus.WithFields(logrus.Fields{"source": source.String(), "instrument": symbol, "interval": interval}).
		Info("produce: streaming ticks")

	// Starting price defaults to 100.0 (8-decimal fixed point) but can be
	// overridden via PROTOCOL_V2_PRODUCE_START_PRICE for scripted scenarios.
	price := int64(utils.EnvOrDefaultUint64("PROTOCOL_V2_PRODUCE_START_PRICE", 100_00000000))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		price += 1_00000000
		trade := core.TradeTLV{
			VenueId:     instrument.Venue,
			AssetType:   instrument.AssetType,
			AssetId:     instrument.AssetId,
			Price:       price,
			Volume:      1_00000000,
			Side:        0,
			TimestampNs: uint64(time.Now().UnixNano()),
		}
		message, err := builder.Build(0, []core.TLVField{{Type: core.TypeTrade, Value: trade.Encode()}})
		if err != nil {
			logrus.WithError(err).Warn("produce: failed to build message")
			continue
		}
		if err := conn.Send(ctx, message); err != nil {
			return err
		}
	}
	return nil
}
