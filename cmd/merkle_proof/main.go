// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// The merkle_proof binary builds a Merkle tree from a file of leaves offline.
// It prints the root, the inclusion proof of a leaf, or checks a proof
// against a root.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/hashserv/merkle"
	"github.com/google/hashserv/merkle/codec"
	"github.com/google/hashserv/merkle/hashers"
	"k8s.io/klog/v2"
)

var (
	leavesFile   = flag.String("leaves_file", "", "File with one leaf per line: a digest, or content with --hash_contents")
	hashContents = flag.Bool("hash_contents", false, "Hash each line of --leaves_file instead of reading digests")
	hasherName   = flag.String("hasher", hashers.SHA256, fmt.Sprintf("Digest function. One of: %v", hashers.Names()))
	target       = flag.String("target", "", "Digest (or content with --hash_contents) to prove or verify")
	format       = flag.String("format", string(codec.FormatJSON), "Proof encoding: json, cbor or yaml")
	outFile      = flag.String("out", "", "Write the proof to this file instead of stdout")
	proofFile    = flag.String("proof_file", "", "Verify the proof in this file against --root instead of building a tree")
	root         = flag.String("root", "", "Expected root for --proof_file")
)

// errInvalidProof is returned when a proof does not lead to the given root.
var errInvalidProof = errors.New("proof does not lead to root")

type config struct {
	leavesFile   string
	hashContents bool
	hasher       string
	target       string
	format       string
	outFile      string
	proofFile    string
	root         string
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	cfg := config{
		leavesFile:   *leavesFile,
		hashContents: *hashContents,
		hasher:       *hasherName,
		target:       *target,
		format:       *format,
		outFile:      *outFile,
		proofFile:    *proofFile,
		root:         *root,
	}
	if err := run(os.Stdout, cfg); err != nil {
		klog.Exitf("merkle_proof: %v", err)
	}
}

func run(w io.Writer, cfg config) error {
	h, err := hashers.New(cfg.hasher)
	if err != nil {
		return err
	}
	f, err := codec.ParseFormat(cfg.format)
	if err != nil {
		return err
	}
	var t merkle.Digest
	if cfg.target != "" {
		if t, err = leafDigest(h, cfg.target, cfg.hashContents); err != nil {
			return fmt.Errorf("--target: %v", err)
		}
	}

	if cfg.proofFile != "" {
		return verify(w, h, f, t, cfg)
	}

	if cfg.leavesFile == "" {
		return errors.New("one of --leaves_file or --proof_file is required")
	}
	tree, err := readTree(h, cfg.leavesFile, cfg.hashContents)
	if err != nil {
		return err
	}
	r, err := tree.Root()
	if err != nil {
		return fmt.Errorf("%s: %v", cfg.leavesFile, err)
	}
	if t == "" {
		fmt.Fprintf(w, "Leaves: %d\nRoot: %s\n", tree.Size(), r)
		return nil
	}

	p, err := tree.Proof(t)
	if err != nil {
		return err
	}
	data, err := codec.Marshal(p, f)
	if err != nil {
		return err
	}
	klog.V(1).Infof("Proof of %s: %d branches, root %s", t, p.Len(), r)
	if cfg.outFile != "" {
		return os.WriteFile(cfg.outFile, data, 0o644)
	}
	_, err = w.Write(data)
	return err
}

func verify(w io.Writer, h merkle.Hasher, f codec.Format, t merkle.Digest, cfg config) error {
	if t == "" || cfg.root == "" {
		return errors.New("--proof_file needs --target and --root")
	}
	r, err := merkle.ParseDigest(h, cfg.root)
	if err != nil {
		return fmt.Errorf("--root: %v", err)
	}
	data, err := os.ReadFile(cfg.proofFile)
	if err != nil {
		return err
	}
	p, err := codec.Unmarshal(data, f, h)
	if err != nil {
		return fmt.Errorf("%s: %v", cfg.proofFile, err)
	}
	if !p.Verify(t, r) {
		return errInvalidProof
	}
	fmt.Fprintf(w, "Proof of %s is valid for root %s\n", t, r)
	return nil
}

func leafDigest(h merkle.Hasher, s string, hashContents bool) (merkle.Digest, error) {
	if hashContents {
		return h.Digest([]byte(s)), nil
	}
	return merkle.ParseDigest(h, s)
}

// readTree builds a tree from the non-empty lines of path.
func readTree(h merkle.Hasher, path string, hashContents bool) (*merkle.Tree, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	b := merkle.NewBuilder(h)
	s := bufio.NewScanner(file)
	for line := 1; s.Scan(); line++ {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			continue
		}
		if hashContents {
			b.AddContent([]byte(text))
			continue
		}
		d, err := merkle.ParseDigest(h, text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %v", path, line, err)
		}
		b.AddDigest(d)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return b.Seal(), nil
}
