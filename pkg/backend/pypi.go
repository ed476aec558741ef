package backend

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arc-language/manafest/pkg/core"
	"github.com/arc-language/manafest/pkg/executor"
	"github.com/arc-language/manafest/pkg/native"
	"github.com/arc-language/manafest/pkg/parser"
	"github.com/arc-language/manafest/pkg/platform"
	"github.com/arc-language/manafest/pkg/remote"
)

// PyPIBackend queries the Python package index over HTTP and installs with
// pip. It has no index to refresh, so it does not implement Update.
type PyPIBackend struct {
	indexURL string
	pip      *native.Driver
	client   *remote.Client
	runner   executor.Runner
	timeouts core.Timeouts
	logger   logrus.FieldLogger
}

// NewPyPI builds the PyPI backend
func NewPyPI(opts Options) *PyPIBackend {
	opts = opts.withDefaults()
	return &PyPIBackend{
		indexURL: strings.TrimRight(opts.Config.PyPI.IndexURL, "/"),
		pip:      native.Pip(platform.FirstCommand("pip3", "pip")),
		client:   opts.Client,
		runner:   opts.Runner,
		timeouts: opts.Config.Timeouts,
		logger:   opts.Logger.WithField("backend", PyPI),
	}
}

// Name returns the backend identifier
func (b *PyPIBackend) Name() string {
	return PyPI
}

// SelectCommand returns the pip argv for action. Search and info go over
// HTTP and have no argv.
func (b *PyPIBackend) SelectCommand(action core.Action, arg string) ([]string, error) {
	switch action {
	case core.ActionSearch, core.ActionInfo:
		return nil, fmt.Errorf("%s %s: %w: served over HTTP", PyPI, action, core.ErrNotSupported)
	case core.ActionUpgrade:
		return []string{b.pip.Binary, "list", "--outdated", "--format=json"}, nil
	}
	return b.pip.SelectCommand(action, arg)
}

// upgradeCommand upgrades one outdated package
func (b *PyPIBackend) upgradeCommand(name string) []string {
	return []string{b.pip.Binary, "install", "--upgrade", name}
}

type rpcCall struct {
	XMLName    xml.Name   `xml:"methodCall"`
	MethodName string     `xml:"methodName"`
	Params     []rpcParam `xml:"params>param"`
}

type rpcParam struct {
	Value rpcValue `xml:"value"`
}

type rpcValue struct {
	String *string    `xml:"string,omitempty"`
	Struct *rpcStruct `xml:"struct,omitempty"`
}

type rpcStruct struct {
	Members []rpcMember `xml:"member"`
}

type rpcMember struct {
	Name  string   `xml:"name"`
	Value rpcValue `xml:"value"`
}

func rpcString(s string) rpcValue {
	return rpcValue{String: &s}
}

// searchRequest encodes search({"name": query}, "or")
func searchRequest(query string) ([]byte, error) {
	call := rpcCall{
		MethodName: "search",
		Params: []rpcParam{
			{Value: rpcValue{Struct: &rpcStruct{Members: []rpcMember{{Name: "name", Value: rpcString(query)}}}}},
			{Value: rpcString("or")},
		},
	}
	body, err := xml.Marshal(call)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Search uses the XML-RPC search method. The index has disabled it for
// years, so an empty or failed answer falls back to an exact-name lookup.
func (b *PyPIBackend) Search(ctx context.Context, query string) ([]core.PackageRecord, error) {
	records, err := b.xmlrpcSearch(ctx, query)
	if err != nil {
		b.logger.WithField("package", query).Debugf("xmlrpc search failed: %v", err)
	}
	if len(records) > 0 {
		return records, nil
	}

	md, err := b.Info(ctx, query)
	if err != nil {
		if errors.Is(err, core.ErrPackageNotFound) {
			return []core.PackageRecord{}, nil
		}
		return nil, err
	}
	return []core.PackageRecord{md.Record(query)}, nil
}

func (b *PyPIBackend) xmlrpcSearch(ctx context.Context, query string) ([]core.PackageRecord, error) {
	body, err := searchRequest(query)
	if err != nil {
		return nil, err
	}

	raw, err := b.client.Post(ctx, b.indexURL+"/pypi", "text/xml", body)
	if err != nil {
		return nil, err
	}
	return parser.ParseXMLRPC(string(raw)), nil
}

// Info reads the JSON API for name
func (b *PyPIBackend) Info(ctx context.Context, name string) (core.Metadata, error) {
	raw, err := b.client.Get(ctx, b.indexURL+"/pypi/"+url.PathEscape(name)+"/json")
	if err != nil {
		var se *remote.StatusError
		if errors.As(err, &se) && se.StatusCode == 404 {
			err = core.ErrPackageNotFound
		}
		return nil, &core.Error{Op: string(core.ActionInfo), Backend: PyPI, Package: name, Err: err}
	}

	doc := parser.DecodeObject(raw)
	info, _ := doc["info"].(map[string]any)
	if info == nil {
		return nil, &core.Error{Op: string(core.ActionInfo), Backend: PyPI, Package: name,
			Err: fmt.Errorf("%w: no info object", core.ErrParse)}
	}

	src := core.Metadata(info)
	md := core.NewRecord(src.String("name"), src.String("version"), "", src.String("summary")).Metadata()
	if home := src.String("home_page"); home != core.Unknown {
		md["url"] = home
	} else if pkgURL := src.String("package_url"); pkgURL != core.Unknown {
		md["url"] = pkgURL
	}
	if md["name"] == core.Unknown {
		md["name"] = name
	}
	return md, nil
}

// Install runs pip install
func (b *PyPIBackend) Install(ctx context.Context, name string) (core.Metadata, error) {
	if err := b.exec(ctx, core.ActionInstall, name, b.timeouts.Install); err != nil {
		return nil, err
	}
	return core.Metadata{}, nil
}

// Remove runs pip uninstall
func (b *PyPIBackend) Remove(ctx context.Context, name string) error {
	return b.exec(ctx, core.ActionRemove, name, b.timeouts.Install)
}

// IsInstalled asks pip show
func (b *PyPIBackend) IsInstalled(ctx context.Context, name string) (bool, error) {
	err := b.exec(ctx, core.ActionIsInstalled, name, b.timeouts.Query)
	if err == nil {
		return true, nil
	}
	var exitErr *executor.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}

// Upgrade upgrades every outdated package pip reports, one at a time.
// Failures are collected; one bad package does not stop the rest.
func (b *PyPIBackend) Upgrade(ctx context.Context) error {
	argv, _ := b.SelectCommand(core.ActionUpgrade, "")
	res, err := executor.Check(ctx, b.runner, executor.Command{Argv: argv, Timeout: b.timeouts.Query})
	if err != nil {
		return &core.Error{Op: string(core.ActionUpgrade), Backend: PyPI, Err: err}
	}

	outdated := parser.ParseJSON(string(bytes.TrimSpace(res.Stdout)), parser.PipOutdatedJSON)
	if len(outdated) == 0 {
		b.logger.Info("all python packages are up to date")
		return nil
	}

	var errs []error
	for _, rec := range outdated {
		b.logger.WithField("package", rec.Name).Infof("upgrading to %s", rec.Version)
		_, err := executor.Check(ctx, b.runner, executor.Command{
			Argv:    b.upgradeCommand(rec.Name),
			Timeout: b.timeouts.Install,
			Stdin:   executor.StdinInherit,
		})
		if err != nil {
			errs = append(errs, &core.Error{Op: string(core.ActionUpgrade), Backend: PyPI, Package: rec.Name, Err: err})
		}
	}
	return errors.Join(errs...)
}

func (b *PyPIBackend) exec(ctx context.Context, action core.Action, name string, timeout time.Duration) error {
	argv, err := b.pip.SelectCommand(action, name)
	if err != nil {
		return &core.Error{Op: string(action), Backend: PyPI, Package: name, Err: err}
	}

	stdin := executor.StdinNone
	if action != core.ActionIsInstalled {
		stdin = executor.StdinInherit
	}

	if _, err := executor.Check(ctx, b.runner, executor.Command{Argv: argv, Timeout: timeout, Stdin: stdin}); err != nil {
		return &core.Error{Op: string(action), Backend: PyPI, Package: name, Err: err}
	}
	return nil
}
