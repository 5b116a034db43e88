package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.mau.fi/util/exerrors"
	flag "maunium.net/go/mauflag"

	"go.mau.fi/mercury-send/pkg/messagix"
	"go.mau.fi/mercury-send/pkg/messagix/types"
)

var configPath = flag.MakeFull("c", "config", "The path to the config file.", "config.yaml").String()
var generateConfig = flag.MakeFull("e", "generate-example-config", "Save the example config to the config path and quit.", "false").Bool()
var threadID = flag.MakeFull("t", "thread", "ID of an existing thread to send to.", "").String()
var userID = flag.MakeFull("u", "user", "ID or name of a user to send to.", "").String()
var groupMembers = flag.MakeFull("g", "group", "Comma-separated user IDs to create a new group with.", "").String()
var sticker = flag.MakeFull("s", "sticker", "ID of a sticker to send.", "").String()
var emoji = flag.Make().LongKey("emoji").Usage("Emoji to send.").String()
var emojiSize = flag.Make().LongKey("emoji-size").Usage("Size of the emoji: small, medium or large. Sends the default emoji if --emoji is not set.").String()
var attachments = flag.MakeFull("a", "attach", "File to attach. Can be repeated.", "").StringArray()
var shareURL = flag.Make().LongKey("url").Usage("URL to share. With a message body the preview is attached to the text.").String()
var latitude = flag.Make().LongKey("lat").Usage("Latitude of a location to share.").Float64()
var longitude = flag.Make().LongKey("lon").Usage("Longitude of a location to share.").Float64()
var wantHelp, _ = flag.MakeHelpFlag()

func main() {
	flag.SetHelpTitles(
		"mercurysend - Send a message through the Facebook mercury web endpoints.",
		"mercurysend [-h] [-c <path>] (-t <thread> | -u <user> | -g <ids>) [content flags] [message...]",
	)
	err := flag.Parse()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		flag.PrintHelp()
		os.Exit(1)
	} else if *wantHelp {
		flag.PrintHelp()
		os.Exit(0)
	}

	if *generateConfig {
		exerrors.PanicIfNotNil(os.WriteFile(*configPath, []byte(ExampleConfig), 0600))
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := newLogger(cfg.logLevel)
	session, err := cfg.Session()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid cookies in config")
	}
	if missing := session.GetMissingCookieNames(); len(missing) > 0 {
		log.Warn().Any("missing_cookies", missing).Msg("Session is missing cookies")
	}
	cli, err := messagix.NewClient(session, log, cfg.ClientConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create client")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = log.WithContext(ctx)

	msg, err := buildMessage(ctx, cli)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid message")
	}
	resp, err := cli.Send(ctx, msg)
	if errors.Is(err, messagix.ErrTokenInvalidated) {
		log.Fatal().Err(err).Msg("Session is logged out, update the cookies in the config")
	} else if err != nil {
		log.Fatal().Err(err).Msg("Failed to send message")
	}
	log.Info().
		Str("message_id", resp.MessageID).
		Str("thread_id", resp.ThreadID).
		Msg("Message sent")
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	exerrors.PanicIfNotNil(enc.Encode(resp))
}

func buildMessage(ctx context.Context, cli *messagix.Client) (*messagix.Message, error) {
	target, err := resolveTarget(ctx, cli)
	if err != nil {
		return nil, err
	}
	msg, err := messageFromFlags(flag.Args())
	if err != nil {
		return nil, err
	}
	msg.Target = target
	return msg, nil
}

// messageFromFlags fills the message content from the content flags and
// the remaining arguments, which form the text body.
func messageFromFlags(args []string) (*messagix.Message, error) {
	msg := &messagix.Message{
		Body:      strings.Join(args, " "),
		Sticker:   *sticker,
		Emoji:     *emoji,
		EmojiSize: *emojiSize,
		URL:       *shareURL,
	}
	if msg.Emoji != "" && msg.EmojiSize == "" {
		msg.EmojiSize = "small"
	}
	if *latitude != 0 || *longitude != 0 {
		msg.Location = &types.Location{Latitude: *latitude, Longitude: *longitude}
	}
	for _, path := range *attachments {
		if path == "" {
			continue
		}
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open attachment: %w", err)
		}
		// The process exits right after sending, so the files are left open.
		msg.Attachments = append(msg.Attachments, messagix.NewAttachment(filepath.Base(path), file))
	}
	return msg, nil
}

func resolveTarget(ctx context.Context, cli *messagix.Client) (messagix.Target, error) {
	switch {
	case *threadID != "":
		return messagix.ThreadTarget(*threadID), nil
	case *groupMembers != "":
		return messagix.NewGroupTarget(strings.Split(*groupMembers, ",")...), nil
	case *userID != "":
		resolved, err := cli.ResolveUserID(ctx, *userID)
		if err != nil {
			return messagix.Target{}, err
		}
		return messagix.UserTarget(resolved), nil
	default:
		return messagix.Target{}, fmt.Errorf("%w: one of --thread, --user or --group is required", messagix.ErrInvalidTarget)
	}
}
