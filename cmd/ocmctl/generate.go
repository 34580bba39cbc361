package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vibeocm/vibeocm-backend/config"
	"github.com/vibeocm/vibeocm-backend/internal/analytics"
	"github.com/vibeocm/vibeocm-backend/internal/bundle"
	"github.com/vibeocm/vibeocm-backend/internal/llm"
	"github.com/vibeocm/vibeocm-backend/internal/logging"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/service"
)

type generateOptions struct {
	projectFile string
	provider    string
	auth        string
	apiKey      string
	out         string
	artifacts   []string
}

func newGenerateCmd() *cobra.Command {
	opts := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an artifact bundle from a project file",
		Long: `Reads project details from a YAML or JSON file and writes a ZIP with one
Markdown file per artifact. Failed artifacts are written as <name>-ERROR.md.

Auth methods openai and mistral need --api-key (or OPENAI_API_KEY /
MISTRAL_API_KEY). passphrase and trial use DEFAULT_MISTRAL_API_KEY; trial
falls back to canned content when that key is missing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.projectFile, "project", "p", "", "project file (.yaml, .yml or .json)")
	f.StringVar(&opts.provider, "provider", string(domain.ProviderMistral), "openai or mistral")
	f.StringVar(&opts.auth, "auth", "", "auth method: openai, mistral, passphrase or trial (defaults to --provider)")
	f.StringVar(&opts.apiKey, "api-key", "", "provider API key")
	f.StringVarP(&opts.out, "out", "o", "", "output ZIP path (defaults to <project>-ocm-artifacts.zip)")
	f.StringSliceVarP(&opts.artifacts, "artifact", "a", nil, "artifact to generate, repeatable (defaults to all)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts generateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.Init(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	project, err := loadProject(opts.projectFile)
	if err != nil {
		return err
	}
	if err := validateProject(project); err != nil {
		return err
	}

	provider := domain.Provider(strings.ToLower(opts.provider))
	if !provider.Valid() {
		return fmt.Errorf("unsupported API provider: %s", opts.provider)
	}
	method := domain.AuthMethod(opts.auth)
	if method == "" {
		method = domain.AuthMethod(provider)
	}
	if !method.Valid() {
		return fmt.Errorf("unknown auth method: %s", opts.auth)
	}
	apiKey := opts.apiKey
	if apiKey == "" && !method.UsesSharedKey() {
		apiKey = os.Getenv(strings.ToUpper(string(provider)) + "_API_KEY")
	}
	if apiKey == "" && !method.UsesSharedKey() {
		return domain.ErrAPIKeyRequired
	}

	artifacts := opts.artifacts
	if len(artifacts) == 0 {
		artifacts = domain.AllArtifacts
	}

	gen := service.NewGenerator(llm.NewClient(llm.Config{
		OpenAIBaseURL:  cfg.LLM.OpenAIBaseURL,
		MistralBaseURL: cfg.LLM.MistralBaseURL,
		MaxAttempts:    cfg.LLM.MaxAttempts,
		BackoffBase:    cfg.LLM.BackoffBase,
		Timeout:        cfg.LLM.Timeout,
		RatePerSecond:  cfg.LLM.RatePerSecond,
	}), analytics.Noop{}, service.GeneratorConfig{
		DefaultMistralKey: cfg.LLM.DefaultMistralAPIKey,
		Temperature:       cfg.LLM.Temperature,
		MaxTokens:         cfg.LLM.MaxTokens,
	})

	b := &bundle.Bundle{ProjectName: project.Name}
	out := cmd.OutOrStdout()
	for i, artifact := range artifacts {
		fmt.Fprintf(out, "[%d/%d] %s ... ", i+1, len(artifacts), artifact)
		res, err := gen.Generate(ctx, service.GenerateRequest{
			Artifact:   artifact,
			Project:    *project,
			Provider:   provider,
			AuthMethod: method,
			APIKey:     apiKey,
			DistinctID: "ocmctl",
		})
		if err != nil {
			fmt.Fprintln(out, "failed")
			logging.FromContext(ctx).LogWarn("ocmctl.generate", "artifact failed",
				zap.String("artifact", artifact), zap.Error(err))
			b.Entries = append(b.Entries, bundle.Entry{Artifact: artifact, Err: err})
			continue
		}
		fmt.Fprintln(out, "ok")
		b.Entries = append(b.Entries, bundle.Entry{Artifact: artifact, Content: res.Content})
	}

	path := opts.out
	if path == "" {
		path = bundle.FileName(project.Name)
	}
	if err := writeBundle(path, b); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (%d/%d artifacts)\n", path, b.Succeeded(), len(b.Entries))

	if b.Succeeded() == 0 {
		return errors.New("no artifacts were generated")
	}
	return nil
}

// loadProject accepts YAML or JSON; JSON is valid YAML so one decoder serves both.
func loadProject(path string) (*domain.ProjectData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	var p domain.ProjectData
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", filepath.Base(path), err)
	}
	return &p, nil
}

func validateProject(p *domain.ProjectData) error {
	return errors.Join(
		domain.ValidateBasics(domain.BasicsInput{Name: p.Name, Goal: p.Goal, StartDate: p.StartDate, EndDate: p.EndDate}),
		domain.ValidateStakeholders(domain.StakeholdersInput{Stakeholders: p.Stakeholders, ImpactedUsers: p.ImpactedUsers}),
		domain.ValidateBenefits(domain.BenefitsInput{OrgBenefits: p.OrgBenefits, UserBenefits: p.UserBenefits, Challenges: p.Challenges}),
	)
}

func writeBundle(path string, b *bundle.Bundle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := b.Write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
