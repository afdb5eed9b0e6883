package mdprint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/alnah/mdprint/internal/fileutil"
	"github.com/alnah/mdprint/internal/process"
)

// pdfConverter abstracts HTML to PDF conversion to allow different backends.
type pdfConverter interface {
	ToPDF(ctx context.Context, htmlContent string, opts *pdfOptions) ([]byte, error)
	Close() error
}

// pdfRenderer abstracts PDF rendering from an HTML file to enable testing without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error)
	Close() error
}

// pdfOptions holds options for PDF generation.
type pdfOptions struct {
	Page *PageSettings

	// WaitMath and WaitMermaid hold printing until the page's runtime
	// bootstrap reports it has finished typesetting.
	WaitMath    bool
	WaitMermaid bool
}

// Settle limits for asynchronous page work.
const (
	imageWait   = 5 * time.Second  // per image
	runtimeWait = 20 * time.Second // MathJax and mermaid together
	pollEvery   = 50 * time.Millisecond
)

// waitImagesJS resolves once every image has loaded, failed, or waited ms.
const waitImagesJS = `(ms) => Promise.all(Array.from(document.images).map((img) =>
	img.complete ? null : new Promise((done) => {
		img.addEventListener('load', done, { once: true });
		img.addEventListener('error', done, { once: true });
		setTimeout(done, ms);
	})))`

// waitRuntimesJS resolves to "" when the requested runtimes signalled
// readiness, or to the name of the first one still missing after ms.
const waitRuntimesJS = `(math, mermaid, ms, every) => new Promise((resolve) => {
	const start = Date.now();
	const poll = () => {
		const mathReady = !math || window.__mdprintMathReady === true;
		const mermaidReady = !mermaid || window.__mdprintMermaidReady === true;
		if (mathReady && mermaidReady) {
			resolve('');
			return;
		}
		if (Date.now() - start >= ms) {
			resolve(mathReady ? 'mermaid' : 'math');
			return;
		}
		setTimeout(poll, every);
	};
	poll();
})`

// rodRenderer implements pdfRenderer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
// One browser process serves every document; each render gets its own
// incognito context so page globals never leak between documents.
type rodRenderer struct {
	mu         sync.Mutex
	browser    *rod.Browser
	launcher   *launcher.Launcher
	timeout    time.Duration
	browserBin string
	logger     zerolog.Logger
}

// newRodRenderer creates a rodRenderer with the given timeout.
func newRodRenderer(timeout time.Duration, browserBin string, logger zerolog.Logger) *rodRenderer {
	return &rodRenderer{timeout: timeout, browserBin: browserBin, logger: logger}
}

// ensureBrowser lazily connects to the browser.
func (r *rodRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	// Configure launcher
	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	bin := r.browserBin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.logger.Debug().Int("pid", l.PID()).Str("bin", bin).Msg("browser started")
	r.browser = browser
	r.launcher = l
	return browser, nil
}

// Close releases browser resources. Chrome child processes are killed
// with the process group so none outlive the converter.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}

	err := r.browser.Close()
	if pid := r.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	r.browser = nil
	r.launcher = nil
	return err
}

// RenderFromFile opens a local HTML file in headless Chrome and renders it to PDF.
// Returns explicit errors instead of panicking when browser operations fail.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts == nil {
		opts = &pdfOptions{}
	}
	printOpts, err := buildPDFOptions(opts.Page)
	if err != nil {
		return nil, err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	pageURL, err := fileutil.FileURL(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() {
		// Disposes only this document's context, never the shared browser.
		if err := incognito.Close(); err != nil {
			r.logger.Debug().Err(err).Msg("closing browser context")
		}
	}()

	// Without a caller deadline, fall back to the renderer timeout
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	page, err := incognito.Context(ctx).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return nil, classifyError(ctx, ErrPageCreate, err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return nil, classifyError(ctx, ErrPageLoad, err)
	}

	if err := settle(page, opts); err != nil {
		return nil, classifyError(ctx, ErrPageLoad, err)
	}

	reader, err := page.PDF(printOpts)
	if err != nil {
		return nil, classifyError(ctx, ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	return pdfBuf, nil
}

// settle waits for images, then for the math and diagram runtimes the
// document needs.
func settle(page *rod.Page, opts *pdfOptions) error {
	if _, err := page.Eval(waitImagesJS, imageWait.Milliseconds()); err != nil {
		return fmt.Errorf("waiting for images: %w", err)
	}

	if !opts.WaitMath && !opts.WaitMermaid {
		return nil
	}

	res, err := page.Eval(waitRuntimesJS, opts.WaitMath, opts.WaitMermaid,
		runtimeWait.Milliseconds(), pollEvery.Milliseconds())
	if err != nil {
		return fmt.Errorf("waiting for page scripts: %w", err)
	}
	return runtimeError(res.Value.Str(), runtimeWait)
}

// runtimeError turns the wait script's verdict into an error.
func runtimeError(missing string, waited time.Duration) error {
	switch missing {
	case "":
		return nil
	case "math":
		return fmt.Errorf("%w: MathJax not ready after %s", ErrRuntimeNotLoaded, waited)
	default:
		return fmt.Errorf("%w: mermaid not ready after %s", ErrRuntimeNotLoaded, waited)
	}
}

// classifyError reports deadline expiry as ErrRenderTimeout and anything
// else under the stage's sentinel. ErrRuntimeNotLoaded passes through.
func classifyError(ctx context.Context, stage, err error) error {
	if errors.Is(err, ErrRuntimeNotLoaded) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrRenderTimeout, err)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", stage, err)
}

// emptyTemplate keeps Chrome's default header or footer out when only the
// other one is set.
const emptyTemplate = "<span></span>"

// buildPDFOptions constructs proto.PagePrintToPDF from validated page settings.
func buildPDFOptions(p *PageSettings) (*proto.PagePrintToPDF, error) {
	width, height, m, err := p.resolve()
	if err != nil {
		return nil, err
	}

	pdfOpts := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(m.Top),
		MarginBottom:    floatPtr(m.Bottom),
		MarginLeft:      floatPtr(m.Left),
		MarginRight:     floatPtr(m.Right),
		PrintBackground: true,
	}

	if p != nil && (p.HeaderHTML != "" || p.FooterHTML != "") {
		pdfOpts.DisplayHeaderFooter = true
		pdfOpts.HeaderTemplate = orEmptyTemplate(p.HeaderHTML)
		pdfOpts.FooterTemplate = orEmptyTemplate(p.FooterHTML)
	}

	return pdfOpts, nil
}

func orEmptyTemplate(s string) string {
	if s == "" {
		return emptyTemplate
	}
	return s
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// rodConverter converts HTML to PDF using headless Chrome via go-rod.
type rodConverter struct {
	renderer pdfRenderer
}

// newRodConverter creates a rodConverter with production renderer.
func newRodConverter(timeout time.Duration, browserBin string, logger zerolog.Logger) *rodConverter {
	return &rodConverter{
		renderer: newRodRenderer(timeout, browserBin, logger),
	}
}

// ToPDF writes the page to a unique temporary file, so the browser can
// resolve relative assets, and renders it. The file is removed on every path.
func (c *rodConverter) ToPDF(ctx context.Context, htmlContent string, opts *pdfOptions) ([]byte, error) {
	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return c.renderer.RenderFromFile(ctx, tmpPath, opts)
}

// Close releases browser resources.
func (c *rodConverter) Close() error {
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}
