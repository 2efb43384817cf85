// Command iotctl is a thin demonstration CLI over the iotcore value/bus/
// scheduler libraries, modelled on cmd/synnergy/main.go's root-command +
// subcommand-constructor shape. It is not a core collaborator (spec.md §1
// scopes CLIs out of the core); it exists only to exercise the library end
// to end, the same role the original C sources give src/c/examples/*.c.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"iotcore/bus"
	"iotcore/codec/base64"
	"iotcore/codec/cbor"
	"iotcore/codec/json"
	"iotcore/codec/xmlcodec"
	"iotcore/codec/yamlcodec"
	"iotcore/internal/httpapi"
	"iotcore/internal/metrics"
	"iotcore/pkg/config"
	"iotcore/scheduler"
	"iotcore/value"
	"iotcore/wpool"
)

func main() {
	rootCmd := &cobra.Command{Use: "iotctl"}
	rootCmd.AddCommand(dataCmd())
	rootCmd.AddCommand(busCmd())
	rootCmd.AddCommand(schedCmd())
	rootCmd.AddCommand(serveCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func dataCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "data"}

	encode := &cobra.Command{
		Use:   "encode [value]",
		Short: "parse a scalar value and encode it with the chosen codec",
		Run: func(cmd *cobra.Command, args []string) {
			typeName, _ := cmd.Flags().GetString("type")
			codecName, _ := cmd.Flags().GetString("codec")
			raw := ""
			if len(args) > 0 {
				raw = args[0]
			}
			t, ok := value.ParseType(typeName)
			if !ok {
				fmt.Fprintf(os.Stderr, "unknown type %q\n", typeName)
				os.Exit(1)
			}
			v, err := value.Parse(raw, t)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			out, err := encodeWith(codecName, v)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Println(out)
		},
	}
	encode.Flags().String("type", "String", "value type (Int32, Float64, String, Bool, Binary, ...)")
	encode.Flags().String("codec", "json", "codec: json, cbor, base64, xml, yaml")
	cmd.AddCommand(encode)

	decode := &cobra.Command{
		Use:   "decode [text]",
		Short: "decode an encoded value and print its typecode and value",
		Run: func(cmd *cobra.Command, args []string) {
			codecName, _ := cmd.Flags().GetString("codec")
			raw := ""
			if len(args) > 0 {
				raw = args[0]
			}
			v, err := decodeWith(codecName, raw)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Printf("%s: %v\n", v.Kind(), describe(v))
		},
	}
	decode.Flags().String("codec", "json", "codec: json, cbor, base64, xml, yaml")
	cmd.AddCommand(decode)

	return cmd
}

func encodeWith(codecName string, v *value.Value) (string, error) {
	switch codecName {
	case "json":
		return json.Encode(v)
	case "cbor":
		return base64.Encode(cbor.Encode(v)), nil
	case "base64":
		if v.Kind() != value.Binary && v.Kind() != value.String {
			return "", fmt.Errorf("base64 codec requires a Binary or String value")
		}
		if v.Kind() == value.String {
			return base64.Encode([]byte(v.StringValue())), nil
		}
		return base64.Encode(v.BytesValue()), nil
	case "xml":
		return xmlcodec.Encode(v)
	case "yaml":
		return yamlcodec.Encode(v)
	default:
		return "", fmt.Errorf("unknown codec %q", codecName)
	}
}

func decodeWith(codecName, raw string) (*value.Value, error) {
	switch codecName {
	case "json":
		return json.Decode(raw, false, nil)
	case "cbor":
		b, err := base64.Decode(raw)
		if err != nil {
			return nil, err
		}
		return cbor.Decode(b)
	case "base64":
		b, err := base64.Decode(raw)
		if err != nil {
			return nil, err
		}
		return value.NewBinary(b, value.TakeBuf), nil
	case "xml":
		return xmlcodec.Decode(raw)
	case "yaml":
		return yamlcodec.Decode(raw)
	default:
		return nil, fmt.Errorf("unknown codec %q", codecName)
	}
}

func describe(v *value.Value) string {
	switch v.Kind() {
	case value.String:
		return v.StringValue()
	case value.Bool:
		return fmt.Sprintf("%v", v.BoolValue())
	case value.Float32, value.Float64:
		return fmt.Sprintf("%v", v.Float64Value())
	default:
		if v.Kind().IsNumeric() {
			return fmt.Sprintf("%v", v.IntValue())
		}
		return fmt.Sprintf("%s", v.Typecode().Type)
	}
}

func busCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "bus"}

	pub := &cobra.Command{
		Use:   "pub [topic] [text]",
		Short: "publish a retained String value to a topic and print the current retained value",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Fprintln(os.Stderr, "usage: iotctl bus pub <topic> <text>")
				os.Exit(1)
			}
			b := bus.New(nil, nil, uint64(time.Second), nil)
			topic := b.NewTopic(args[0], nil, true)
			p := b.NewPublisher(topic, nil, nil)
			b.Publish(p, value.NewString(args[1], value.CopyBuf), true)
			fmt.Printf("published %q to %s (retained count=%d)\n", args[1], args[0], b.RetainedTopicCount())
		},
	}
	cmd.AddCommand(pub)

	sub := &cobra.Command{
		Use:   "sub [pattern] [topic] [text]",
		Short: "subscribe to pattern, publish one retained value, and pull it back",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 3 {
				fmt.Fprintln(os.Stderr, "usage: iotctl bus sub <pattern> <topic> <text>")
				os.Exit(1)
			}
			b := bus.New(nil, nil, uint64(time.Second), nil)
			topic := b.NewTopic(args[1], nil, true)
			p := b.NewPublisher(topic, nil, nil)
			s := b.NewSubscriber(args[0], func(data *value.Value, self interface{}, topicName string) {
				fmt.Printf("delivered on %s: %s\n", topicName, data.StringValue())
			}, nil)
			b.Publish(p, value.NewString(args[2], value.CopyBuf), true)
			if pulled := s.Pull(); pulled != nil {
				fmt.Printf("pulled: %s\n", pulled.StringValue())
			} else {
				fmt.Println("pulled: <nothing>")
			}
		},
	}
	cmd.AddCommand(sub)

	return cmd
}

func schedCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "sched"}
	demo := &cobra.Command{
		Use:   "demo",
		Short: "run a schedule a handful of times against a small worker pool and report drops",
		Run: func(cmd *cobra.Command, args []string) {
			periodMs, _ := cmd.Flags().GetInt("period-ms")
			ticks, _ := cmd.Flags().GetInt("ticks")
			pool := wpool.New(1, 1)
			defer pool.Shutdown()
			sch := scheduler.New(pool, nil)
			defer sch.Shutdown()

			done := make(chan struct{})
			count := 0
			sc := sch.Create(func() {
				count++
				if count >= ticks {
					close(done)
				}
			}, nil, nil, 0, time.Duration(periodMs)*time.Millisecond, uint64(ticks), 0, true)
			sch.Add(sc)

			select {
			case <-done:
			case <-time.After(time.Duration(ticks+2) * time.Duration(periodMs) * time.Millisecond):
			}
			fmt.Printf("ran %d/%d ticks, dropped=%d\n", count, ticks, sc.DroppedCount())
		},
	}
	demo.Flags().Int("period-ms", 50, "schedule period in milliseconds")
	demo.Flags().Int("ticks", 5, "number of repeats")
	cmd.AddCommand(demo)
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the worker pool, scheduler, and bus with an HTTP introspection server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				logrus.WithError(err).Warn("using default configuration")
				cfg = &config.AppConfig
			}

			pool := wpool.New(cfg.WorkerPool.Workers, cfg.WorkerPool.Queue)
			defer pool.Shutdown()
			sch := scheduler.New(pool, nil)
			defer sch.Shutdown()
			b := bus.New(pool, sch, uint64(cfg.Bus.DefaultPollIntervalMS)*uint64(time.Millisecond), nil)

			collector := metrics.New(b, sch, nil)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go collector.Run(ctx, 5*time.Second)

			srv := httpapi.New(b, sch, nil)
			metricsHandler := promhttp.HandlerFor(collector.Registry, promhttp.HandlerOpts{})
			handler := srv.Router(metricsHandler)

			addr := cfg.HTTP.Addr
			if addr == "" {
				addr = ":8080"
			}
			httpSrv := &http.Server{Addr: addr, Handler: handler}

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sig
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = httpSrv.Shutdown(shutdownCtx)
			}()

			logrus.Infof("iotctl serve listening on %s", addr)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logrus.Fatal(err)
			}
		},
	}
	return cmd
}
