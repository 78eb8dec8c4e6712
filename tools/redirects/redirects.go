package main

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
)

const redirectTableSection = ".goredirectstbl"

type redirect struct {
	src string
	dst string

	srcVMA uint64
	dstVMA uint64
}

// modulePath returns the module path declared by the go.mod file in root.
func modulePath(root string) (string, error) {
	goMod := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(goMod)
	if err != nil {
		return "", err
	}

	f, err := modfile.ParseLax(goMod, data, nil)
	if err != nil {
		return "", err
	}
	if f.Module == nil {
		return "", fmt.Errorf("%s: missing module directive", goMod)
	}

	return f.Module.Mod.Path, nil
}

// collectGoFiles returns the non-test Go files below dir, relative to root.
func collectGoFiles(root, dir string) ([]string, error) {
	var goFiles []string
	err := filepath.Walk(filepath.Join(root, dir), func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		if filepath.Ext(p) == ".go" && !strings.HasSuffix(p, "_test.go") {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			goFiles = append(goFiles, rel)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(goFiles)
	return goFiles, nil
}

// findRedirects returns the go:redirect-from directives attached to function
// declarations in goFiles. Destinations are qualified with the import path of
// the declaring package.
func findRedirects(root, modPath string, goFiles []string) ([]*redirect, error) {
	var redirects []*redirect

	for _, goFile := range goFiles {
		fset := token.NewFileSet()

		f, err := parser.ParseFile(fset, filepath.Join(root, goFile), nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", goFile, err)
		}

		pkgPath := path.Join(modPath, filepath.ToSlash(filepath.Dir(goFile)))
		for _, decl := range f.Decls {
			fnDecl, ok := decl.(*ast.FuncDecl)
			if !ok || fnDecl.Doc == nil || fnDecl.Recv != nil {
				continue
			}

			for _, comment := range fnDecl.Doc.List {
				if !strings.HasPrefix(comment.Text, "//go:redirect-from") {
					continue
				}

				fqName := pkgPath + "." + fnDecl.Name.Name

				fields := strings.Fields(comment.Text)
				if len(fields) != 2 || fields[0] != "//go:redirect-from" {
					return nil, fmt.Errorf("%s: malformed go:redirect-from syntax for %q", fset.Position(comment.Pos()), fqName)
				}

				redirects = append(redirects, &redirect{
					src: fields[1],
					dst: fqName,
				})
			}
		}
	}

	return redirects, nil
}

// resolveSymbols fills in the addresses of the redirect sources and
// destinations using the symbol table of the supplied ELF image.
func resolveSymbols(redirects []*redirect, symbols []elf.Symbol) error {
	for _, redirect := range redirects {
		for _, symbol := range symbols {
			if symbol.Name == redirect.src {
				redirect.srcVMA = symbol.Value
			}
			if symbol.Name == redirect.dst {
				redirect.dstVMA = symbol.Value
			}
		}

		switch {
		case redirect.srcVMA == 0:
			return fmt.Errorf("could not locate address of %q", redirect.src)
		case redirect.dstVMA == 0:
			return fmt.Errorf("could not locate address of %q", redirect.dst)
		}
	}

	return nil
}

// encodeTable writes the (src, dst) address pairs in the layout read by the
// kernel.
func encodeTable(w io.Writer, redirects []*redirect) error {
	for _, redirect := range redirects {
		if err := binary.Write(w, binary.LittleEndian, [2]uint64{redirect.srcVMA, redirect.dstVMA}); err != nil {
			return err
		}
	}
	return nil
}

// populateTable resolves redirects against imgFile and writes the table into
// its redirect section.
func populateTable(redirects []*redirect, imgFile string) error {
	img, err := elf.Open(imgFile)
	if err != nil {
		return err
	}

	section := img.Section(redirectTableSection)
	if section == nil {
		img.Close()
		return fmt.Errorf("%s: missing %s section", imgFile, redirectTableSection)
	}
	tableOffset, tableSize := section.Offset, section.Size

	symbols, err := img.Symbols()
	img.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", imgFile, err)
	}

	if err = resolveSymbols(redirects, symbols); err != nil {
		return fmt.Errorf("%s: %w", imgFile, err)
	}

	if need := uint64(len(redirects)) * 16; need > tableSize {
		return fmt.Errorf("%s: %s section holds %d bytes; need %d", imgFile, redirectTableSection, tableSize, need)
	}

	f, err := os.OpenFile(imgFile, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err = f.Seek(int64(tableOffset), io.SeekStart); err != nil {
		return err
	}

	return encodeTable(f, redirects)
}
