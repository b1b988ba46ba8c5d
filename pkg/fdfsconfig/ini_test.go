package fdfsconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDumpRoundTrip(t *testing.T) {
	text := "base_path=/home/fastdfs\n" +
		"max_connections=256\n" +
		"[group1]\n" +
		"store_path0=/home/fastdfs/data\n" +
		"store_path1=/home/fastdfs/data2\n"

	ctx, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	again, err := Parse(Dump(ctx))
	if err != nil {
		t.Fatalf("re-parse of Dump output: %v", err)
	}

	if v, _ := again.Get(rootSectionName, "base_path"); v != "/home/fastdfs" {
		t.Fatalf("base_path = %q", v)
	}
	if v, _ := again.Get(rootSectionName, "max_connections"); v != "256" {
		t.Fatalf("max_connections = %q", v)
	}
	paths := again.GetAll("group1", "store_path0")
	if len(paths) != 1 || paths[0] != "/home/fastdfs/data" {
		t.Fatalf("store_path0 = %v", paths)
	}
}

func TestRepeatingSectionsMergeInOrder(t *testing.T) {
	text := "[http]\n" +
		"server_port=80\n" +
		"[group1]\n" +
		"store_path0=/data0\n" +
		"[http]\n" +
		"anti_steal_token=true\n"

	ctx, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	httpSections := 0
	for _, s := range ctx.Sections {
		if s.Name == "http" {
			httpSections++
		}
	}
	if httpSections != 1 {
		t.Fatalf("expected repeated [http] sections to merge into one, got %d", httpSections)
	}

	port, _ := ctx.Get("http", "server_port")
	token, _ := ctx.Get("http", "anti_steal_token")
	if port != "80" || token != "true" {
		t.Fatalf("merged http section missing entries: port=%q token=%q", port, token)
	}
}

func TestDuplicateKeysPreserveAllValues(t *testing.T) {
	ctx, err := Parse("store_path0=/a\nstore_path0=/b\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := ctx.GetAll(rootSectionName, "store_path0")
	if len(got) != 2 || got[0] != "/a" || got[1] != "/b" {
		t.Fatalf("GetAll = %v", got)
	}
}

func TestIncludeRelativePath(t *testing.T) {
	dir := t.TempDir()
	includedPath := filepath.Join(dir, "included.conf")
	if err := os.WriteFile(includedPath, []byte("port=23000\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	rootPath := filepath.Join(dir, "root.conf")
	if err := os.WriteFile(rootPath, []byte("base_path=/data\n#include included.conf\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, err := Load(rootPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, _ := ctx.Get(rootSectionName, "port"); v != "23000" {
		t.Fatalf("included port = %q", v)
	}
}

func TestIncludeCircularDetected(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.conf")
	b := filepath.Join(dir, "b.conf")
	if err := os.WriteFile(a, []byte("#include b.conf\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(b, []byte("#include a.conf\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(a); err == nil {
		t.Fatal("expected circular #include to be detected")
	}
}

func TestResolveCoreConfigDefaultsAndOverrides(t *testing.T) {
	ctx, err := Parse("max_connections=512\nmin_buff_size=4096\nmax_buff_size=8192\nconnect_timeout=3\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg, err := ResolveCoreConfig(ctx)
	if err != nil {
		t.Fatalf("ResolveCoreConfig: %v", err)
	}
	if cfg.MaxConnections != 512 || cfg.MinBuffSize != 4096 || cfg.MaxBuffSize != 8192 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.ConnectTimeout != 3*time.Second {
		t.Fatalf("ConnectTimeout = %v", cfg.ConnectTimeout)
	}
	if cfg.WorkThreads != 4 {
		t.Fatalf("expected default WorkThreads=4, got %d", cfg.WorkThreads)
	}
}

func TestResolveCoreConfigRejectsInvertedBuffBounds(t *testing.T) {
	ctx, _ := Parse("min_buff_size=8192\nmax_buff_size=4096\n")
	if _, err := ResolveCoreConfig(ctx); err == nil {
		t.Fatal("expected error when max_buff_size < min_buff_size")
	}
}
