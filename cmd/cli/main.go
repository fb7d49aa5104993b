package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Devanshi-Padia/media-automation/internal/config"
	"github.com/Devanshi-Padia/media-automation/internal/content"
	"github.com/Devanshi-Padia/media-automation/internal/news"
	"github.com/Devanshi-Padia/media-automation/internal/openai"
	"github.com/Devanshi-Padia/media-automation/internal/platform"
	"github.com/Devanshi-Padia/media-automation/internal/social"
)

// cli bundles the clients used by the interactive menu.
type cli struct {
	textGen     *content.TextGenerator
	imageGen    *content.ImageGenerator
	newsClient  *news.Client
	distributor *social.Distributor
	scanner     *bufio.Scanner

	// Content from the most recent generation, used when posting.
	lastTexts     map[platform.Platform]string
	lastImagePath string
	lastPrompt    string
}

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	aiClient := openai.NewClient(cfg.OpenAIAPIKey)
	newsClient := news.NewClient(cfg.NewsAPIKey)

	app := &cli{
		textGen:    content.NewTextGenerator(aiClient, newsClient, cfg.TextModel),
		imageGen:   content.NewImageGenerator(aiClient, cfg.TextModel, cfg.ImageModel, cfg.TemplatePath, cfg.OutputDir, cfg.ImageMaxAttempts, logger),
		newsClient: newsClient,
		distributor: social.NewDistributor(logger,
			social.NewTwitterPoster(social.TwitterCredentials{
				APIKey:       cfg.TwitterAPIKey,
				APISecret:    cfg.TwitterAPISecret,
				AccessToken:  cfg.TwitterAccessToken,
				AccessSecret: cfg.TwitterAccessSecret,
			}),
			social.NewInstagramPoster(social.InstagramCredentials{
				UserID:      cfg.InstagramUserID,
				AccessToken: cfg.InstagramAccessToken,
			}, cfg.PublicBaseURL),
			social.NewLinkedInPoster(social.LinkedInCredentials{
				AccessToken: cfg.LinkedInAccessToken,
				AuthorURN:   cfg.LinkedInAuthorURN,
			}),
			social.NewFacebookPoster(social.FacebookCredentials{
				PageID:          cfg.FacebookPageID,
				PageAccessToken: cfg.FacebookPageAccessToken,
			}),
			social.NewDiscordPoster(cfg.DiscordWebhookURL),
		),
		scanner: bufio.NewScanner(os.Stdin),
	}

	app.run()
}

func (c *cli) run() {
	fmt.Println("AI Content Creator")
	ctx := context.Background()

	for {
		fmt.Println()
		fmt.Println("1) Generate text")
		fmt.Println("2) Fetch news")
		fmt.Println("3) Generate image")
		fmt.Println("4) Post to social media")
		fmt.Println("5) Quit")

		switch c.prompt("Choose an action: ") {
		case "1":
			c.generateText(ctx)
		case "2":
			c.fetchNews(ctx)
		case "3":
			c.generateImage(ctx)
		case "4":
			c.post(ctx)
		case "5", "q", "quit", "exit":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Unknown choice.")
		}
	}
}

// generateText generates platform text for all platforms.
func (c *cli) generateText(ctx context.Context) {
	topic := c.prompt("Enter a topic: ")
	if topic == "" {
		return
	}
	includeNews := strings.HasPrefix(strings.ToLower(c.prompt("Include latest news? (y/n): ")), "y")

	fmt.Println("Generating text...")
	texts, err := c.textGen.Generate(ctx, topic, includeNews, platform.All())
	if err != nil {
		fmt.Printf("Error generating text: %v\n", err)
		return
	}

	for _, p := range platform.All() {
		fmt.Printf("\n%s:\n%s\n", strings.ToUpper(p.String()), texts[p])
	}

	c.lastTexts = texts
	c.lastPrompt = topic
}

// fetchNews prints the latest headlines for a topic.
func (c *cli) fetchNews(ctx context.Context) {
	topic := c.prompt("Enter a topic: ")
	if topic == "" {
		return
	}

	fmt.Println("Fetching news...")
	articles, err := c.newsClient.FetchLatest(ctx, topic)
	if err != nil {
		fmt.Printf("Error fetching news: %v\n", err)
		return
	}
	if len(articles) == 0 {
		fmt.Printf("No recent news articles found for %q.\n", topic)
		return
	}

	for _, a := range articles {
		fmt.Printf("- %s (%s)\n", a.Title, a.Source)
	}
}

// generateImage generates a composited image for a topic.
func (c *cli) generateImage(ctx context.Context) {
	topic := c.prompt("Enter an image prompt: ")
	if topic == "" {
		return
	}

	fmt.Println("Generating image...")
	path, err := c.imageGen.Generate(ctx, topic, "generated")
	if err != nil {
		fmt.Printf("Error generating image: %v\n", err)
		return
	}

	fmt.Printf("Image generated: %s\n", path)
	c.lastImagePath = path
}

// post distributes the most recently generated content.
func (c *cli) post(ctx context.Context) {
	if c.lastTexts == nil {
		fmt.Println("Generate text first.")
		return
	}

	answer := c.prompt("Post the generated content to all platforms? (y/n): ")
	if !strings.HasPrefix(strings.ToLower(answer), "y") {
		fmt.Println("Content saved locally. You can post it manually later.")
		return
	}

	fmt.Println("Posting to social media platforms...")
	result := c.distributor.Post(ctx, c.lastTexts, c.lastImagePath, platform.All())

	if len(result.Failed) == 0 {
		fmt.Println("Successfully posted to all platforms!")
		return
	}
	if len(result.Successful) > 0 {
		fmt.Println("Partially successful:")
	}
	for _, p := range result.Successful {
		fmt.Printf("  ok     %s\n", p)
	}
	for p, msg := range result.Failed {
		fmt.Printf("  failed %s: %s\n", p, msg)
	}
}

func (c *cli) prompt(label string) string {
	fmt.Print(label)
	if !c.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(c.scanner.Text())
}
