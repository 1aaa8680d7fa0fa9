package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iceiceblakey1/atelier/internal/attach"
	"github.com/iceiceblakey1/atelier/internal/config"
	"github.com/iceiceblakey1/atelier/internal/gallery"
	"github.com/iceiceblakey1/atelier/internal/prompt"
	"github.com/iceiceblakey1/atelier/internal/result"
	"github.com/iceiceblakey1/atelier/internal/routes"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Chat with the journal and stream the reply",
	Long: `Chat with the journal and stream the reply.

Examples:
  atelier ask "what should I shoot this weekend?"
  atelier ask --file ./moodboard.pdf "summarize this deck"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		file, _ := cmd.Flags().GetString("file")

		if file != "" {
			text, err := attach.ExtractPDFText(file)
			if err != nil {
				return fmt.Errorf("extracting document text: %w", err)
			}
			message = fmt.Sprintf("%s\n\n--- Attached document (%s) ---\n%s", message, filepath.Base(file), text)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/chat/stream", map[string]any{"message": message})
		if err != nil {
			return err
		}

		err = consumeStream(resp, func(text string) { fmt.Print(text) })
		fmt.Println()
		return err
	},
}

func init() {
	askCmd.Flags().String("file", "", "PDF to extract and attach as context")
}

// --- observe ---

var observeCmd = &cobra.Command{
	Use:   "observe <question>",
	Short: "Ask a question about an image and stream the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		imagePath, _ := cmd.Flags().GetString("image")
		if imagePath == "" {
			return fmt.Errorf("--image is required")
		}

		att, err := attach.FromFile(imagePath)
		if err != nil {
			return fmt.Errorf("loading image: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{"message": question, "image": att}
		resp, err := client.post(cmd.Context(), "/v1/vision/stream", body)
		if err != nil {
			return err
		}

		err = consumeStream(resp, func(text string) { fmt.Print(text) })
		fmt.Println()
		return err
	},
}

func init() {
	observeCmd.Flags().String("image", "", "image file to examine")
}

// --- imagine ---

var imagineCmd = &cobra.Command{
	Use:   "imagine <prompt>",
	Short: "Synthesize an image",
	Long: `Synthesize an image.

Examples:
  atelier imagine "a red fox at golden hour" --aspect 16:9 --out fox.png
  atelier imagine "same scene, but night" --mode edit --image fox.png
  atelier imagine "" --mode copycat --identity me.jpg --style painting.jpg`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		mode, _ := cmd.Flags().GetString("mode")
		aspect, _ := cmd.Flags().GetString("aspect")
		out, _ := cmd.Flags().GetString("out")
		images, _ := cmd.Flags().GetStringArray("image")
		identity, _ := cmd.Flags().GetString("identity")
		style, _ := cmd.Flags().GetString("style")

		var attachments []prompt.Attachment
		for _, path := range images {
			att, err := attach.FromFile(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			attachments = append(attachments, att)
		}
		if identity != "" {
			att, err := attach.FromFile(identity)
			if err != nil {
				return fmt.Errorf("loading identity image: %w", err)
			}
			att.Role = prompt.AttachmentIdentity
			attachments = append(attachments, att)
		}
		if style != "" {
			att, err := attach.FromFile(style)
			if err != nil {
				return fmt.Errorf("loading style image: %w", err)
			}
			att.Role = prompt.AttachmentStyle
			attachments = append(attachments, att)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{
			"prompt":      text,
			"mode":        mode,
			"aspectRatio": aspect,
			"attachments": attachments,
		}
		printStep("Synthesizing...")
		resp, err := client.post(cmd.Context(), "/v1/images", body)
		if err != nil {
			return err
		}

		var res struct {
			result.Result
			ArtifactID string `json:"artifactId"`
		}
		if err := decodeJSON(resp, &res); err != nil {
			return err
		}
		if !res.Success {
			return renderFailure(res.Error)
		}

		if out == "" {
			out = "atelier.png"
		}
		if err := writeDataURL(res.Data, out); err != nil {
			return err
		}
		printSuccess("Saved %s (artifact %s)", out, res.ArtifactID)
		return nil
	},
}

func init() {
	imagineCmd.Flags().String("mode", "", "studio mode: create, edit, copycat, variation (default create)")
	imagineCmd.Flags().String("aspect", "", "aspect ratio, e.g. 1:1, 16:9, 9:16")
	imagineCmd.Flags().String("out", "", "output file (default atelier.png)")
	imagineCmd.Flags().StringArray("image", nil, "reference image (repeatable)")
	imagineCmd.Flags().String("identity", "", "identity reference for copycat mode")
	imagineCmd.Flags().String("style", "", "style reference for copycat mode")
}

// --- speak ---

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "Render text as speech and save a WAV file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		voice, _ := cmd.Flags().GetString("voice")
		out, _ := cmd.Flags().GetString("out")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{"text": text}
		if voice != "" {
			body["speakers"] = []prompt.Speaker{{Name: "Speaker", Voice: voice}}
		}

		printStep("Synthesizing speech...")
		resp, err := client.post(cmd.Context(), "/v1/speech?format=wav", body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "audio/wav" {
			var res result.Result
			if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
				return fmt.Errorf("server returned %d", resp.StatusCode)
			}
			if !res.Success {
				return renderFailure(res.Error)
			}
			return fmt.Errorf("unexpected response type %q", ct)
		}

		if out == "" {
			out = "atelier.wav"
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		if _, err := io.Copy(f, resp.Body); err != nil {
			return fmt.Errorf("writing audio: %w", err)
		}

		printSuccess("Saved %s", out)
		return nil
	},
}

func init() {
	speakCmd.Flags().String("voice", "", "prebuilt voice name")
	speakCmd.Flags().String("out", "", "output file (default atelier.wav)")
}

// --- enhance ---

var enhanceCmd = &cobra.Command{
	Use:   "enhance <prompt>",
	Short: "Rewrite a rough idea into a detailed image prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/enhance", map[string]any{
			"prompt": strings.Join(args, " "),
		})
		if err != nil {
			return err
		}

		var out struct {
			Prompt string `json:"prompt"`
		}
		if err := decodeJSON(resp, &out); err != nil {
			return err
		}
		fmt.Println(out.Prompt)
		return nil
	},
}

// --- routes ---

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Show or change per-feature transport routes",
}

var routesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current route table",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/routes")
		if err != nil {
			return err
		}
		var rec routes.Record
		if err := decodeJSON(resp, &rec); err != nil {
			return err
		}

		for _, f := range routes.Features() {
			rt := rec.Get(f)
			target := "cloud"
			if rt.Enabled {
				target = fmt.Sprintf("local  %s @ %s", rt.ModelName, rt.Endpoint)
			}
			fmt.Printf("  %-8s %s\n", colorize(colorBold, string(f)), target)
		}
		return nil
	},
}

var routesSetCmd = &cobra.Command{
	Use:   "set <feature>",
	Short: "Route one feature (chat, vision, studio, tts) locally or to the cloud",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		feature := routes.Feature(args[0])
		if !feature.Valid() {
			return fmt.Errorf("unknown feature %q (chat, vision, studio, tts)", args[0])
		}
		local, _ := cmd.Flags().GetBool("local")
		cloud, _ := cmd.Flags().GetBool("cloud")
		endpoint, _ := cmd.Flags().GetString("endpoint")
		model, _ := cmd.Flags().GetString("model")
		if local == cloud {
			return fmt.Errorf("exactly one of --local or --cloud is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/routes")
		if err != nil {
			return err
		}
		var rec routes.Record
		if err := decodeJSON(resp, &rec); err != nil {
			return err
		}

		rt := rec.Get(feature)
		rt.Enabled = local
		if endpoint != "" {
			rt.Endpoint = endpoint
		}
		if model != "" {
			rt.ModelName = model
		}
		rec.Set(feature, rt)

		putResp, err := client.put(cmd.Context(), "/v1/routes", rec)
		if err != nil {
			return err
		}
		var saved routes.Record
		if err := decodeJSON(putResp, &saved); err != nil {
			return err
		}

		if rt.Enabled {
			printSuccess("%s now routes to %s @ %s", feature, rt.ModelName, rt.Endpoint)
		} else {
			printSuccess("%s now routes to the cloud", feature)
		}
		return nil
	},
}

var routesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset all routes to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/v1/routes")
		if err != nil {
			return err
		}
		var rec routes.Record
		if err := decodeJSON(resp, &rec); err != nil {
			return err
		}
		printSuccess("Routes reset to defaults")
		return nil
	},
}

func init() {
	routesSetCmd.Flags().Bool("local", false, "route the feature to a local engine")
	routesSetCmd.Flags().Bool("cloud", false, "route the feature to the cloud")
	routesSetCmd.Flags().String("endpoint", "", "local engine URL")
	routesSetCmd.Flags().String("model", "", "local model name")
	routesCmd.AddCommand(routesShowCmd)
	routesCmd.AddCommand(routesSetCmd)
	routesCmd.AddCommand(routesResetCmd)
}

// --- gallery ---

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Browse or export this session's artifacts",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List artifacts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/gallery")
		if err != nil {
			return err
		}
		var items []gallery.Artifact
		if err := decodeJSON(resp, &items); err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("Gallery is empty.")
			return nil
		}
		for _, a := range items {
			p := a.Prompt
			if len(p) > 60 {
				p = p[:60] + "..."
			}
			fmt.Printf("%s  %s  %s\n",
				colorize(colorCyan, a.ID[:8]),
				a.CreatedAt.Format("15:04:05"),
				p,
			)
		}
		return nil
	},
}

var gallerySaveCmd = &cobra.Command{
	Use:   "save <id>",
	Short: "Save one artifact to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/gallery/"+args[0])
		if err != nil {
			return err
		}
		var a gallery.Artifact
		if err := decodeJSON(resp, &a); err != nil {
			return err
		}

		if out == "" {
			out = a.ID[:8] + ".png"
		}
		if err := writeDataURL(a.Data, out); err != nil {
			return err
		}
		printSuccess("Saved %s", out)
		return nil
	},
}

func init() {
	gallerySaveCmd.Flags().String("out", "", "output file (default <id>.png)")
	galleryCmd.AddCommand(galleryListCmd)
	galleryCmd.AddCommand(gallerySaveCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := config.ShowAll()
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("  %s = %s\n", colorize(colorBold, e.Key), e.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return err
		}
		printSuccess("Set %s = %s", args[0], args[1])
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}

// --- helpers ---

// renderFailure turns a result error into CLI output: reason and suggestion
// up front, diagnostic details only behind the warning.
func renderFailure(e *result.Error) error {
	if e == nil {
		return fmt.Errorf("generation failed")
	}
	if len(e.TriggeringTerms) > 0 {
		printWarning("flagged: %s", strings.Join(e.TriggeringTerms, ", "))
	}
	if e.Details != "" {
		printWarning("details: %s", e.Details)
	}
	return fmt.Errorf("%s: %s", e.Reason, e.Suggestion)
}

// writeDataURL decodes a data URL payload and writes the bytes to path.
func writeDataURL(dataURL, path string) error {
	idx := strings.Index(dataURL, ",")
	if idx < 0 || !strings.HasPrefix(dataURL, "data:") {
		return fmt.Errorf("payload is not a data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[idx+1:])
	if err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
