// analyze 命令行一次性匹配分析：读取简历与 JD，输出评分、总结和修改建议
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"ai-resume-matcher/internal/config"
	"ai-resume-matcher/internal/logger"
	"ai-resume-matcher/internal/processor"
	"ai-resume-matcher/internal/storage"
	"ai-resume-matcher/internal/types"
)

type options struct {
	configPath string
	initConfig string
	resumePath string
	jdPath     string
	jdURL      string
	question   string
	k          int
	asJSON     bool
}

func main() {
	var opts options
	pflag.StringVarP(&opts.configPath, "config", "c", "", "配置文件路径")
	pflag.StringVar(&opts.initConfig, "init-config", "", "把默认配置写到该路径后退出，文件已存在时不覆盖")
	pflag.StringVarP(&opts.resumePath, "resume", "r", "", "简历文件 (pdf/docx/txt)")
	pflag.StringVarP(&opts.jdPath, "jd", "j", "", "JD 文件 (pdf/docx/txt)")
	pflag.StringVar(&opts.jdURL, "jd-url", "", "从 URL 抓取 JD")
	pflag.StringVar(&opts.question, "ask", "", "基于简历与 JD 的检索问答，代替评分")
	pflag.IntVarP(&opts.k, "k", "k", 0, "检索分块数，0 表示使用配置的默认值")
	pflag.BoolVar(&opts.asJSON, "json", false, "以 JSON 输出")
	pflag.Parse()

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("错误: "+err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	if opts.initConfig != "" {
		if err := config.CreateSampleConfig(opts.initConfig); err != nil {
			return err
		}
		fmt.Println("默认配置已写入 " + opts.initConfig)
		return nil
	}
	if opts.resumePath == "" {
		return fmt.Errorf("必须提供 --resume")
	}
	if opts.jdPath == "" && opts.jdURL == "" {
		return fmt.Errorf("必须提供 --jd 或 --jd-url")
	}

	_ = godotenv.Load()
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	// 命令行默认只输出警告以上的日志
	if cfg.Logger.Level == "" || cfg.Logger.Level == "info" {
		cfg.Logger.Level = "warn"
	}
	logger.InitWithWriter(logger.Config{Level: cfg.Logger.Level, Format: "pretty"}, os.Stderr)

	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Server.RequestTimeout, 120*time.Second))
	defer cancel()

	store, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := processor.NewAnalysisServiceFromConfig(ctx, cfg, store, nil)
	if err != nil {
		return err
	}

	req, err := loadRequest(ctx, svc.Resolver(), opts)
	if err != nil {
		return err
	}

	if opts.question != "" {
		_, answer, err := svc.Ask(ctx, req, opts.question, opts.k)
		if err != nil {
			return err
		}
		if opts.asJSON {
			return printJSON(answer)
		}
		fmt.Println(renderAnswer(answer))
		return nil
	}

	out, err := svc.Analyze(ctx, req)
	if err != nil {
		return err
	}
	if opts.asJSON {
		band := out.Result.Band()
		return printJSON(map[string]any{
			"session_id":      out.SessionID,
			"matching_score":  out.Result.MatchingScore,
			"summary":         out.Result.Summary,
			"suggested_edits": out.Result.SuggestedEdits,
			"band":            band,
			"insight":         band.Insight(),
		})
	}
	fmt.Println(renderResult(out.Result))
	return nil
}

func loadRequest(ctx context.Context, resolver *processor.InputResolver, opts options) (types.AnalysisRequest, error) {
	resume, err := readDocument(ctx, resolver, opts.resumePath)
	if err != nil {
		return types.AnalysisRequest{}, fmt.Errorf("读取简历失败: %w", err)
	}

	var jd string
	if opts.jdPath != "" {
		jd, err = readDocument(ctx, resolver, opts.jdPath)
	} else {
		jd, err = resolver.FromURL(ctx, opts.jdURL)
	}
	if err != nil {
		return types.AnalysisRequest{}, fmt.Errorf("读取 JD 失败: %w", err)
	}
	return types.AnalysisRequest{ResumeText: resume, JobDescription: jd}, nil
}

func readDocument(ctx context.Context, resolver *processor.InputResolver, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return resolver.FromFile(ctx, filepath.Base(path), data)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
