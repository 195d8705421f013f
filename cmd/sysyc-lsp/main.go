// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"sysyc/internal/lsp"
)

const lsName = "sysyc"

var (
	version = "0.1.0"
	handler protocol.Handler
)

func main() {
	commonlog.Configure(1, nil)
	log := commonlog.GetLogger("sysyc.lsp")

	sysyHandler := lsp.NewSysyHandler()
	handler = protocol.Handler{
		Initialize:                     sysyHandler.Initialize,
		Initialized:                    sysyHandler.Initialized,
		Shutdown:                       sysyHandler.Shutdown,
		SetTrace:                       sysyHandler.SetTrace,
		TextDocumentDidOpen:            sysyHandler.TextDocumentDidOpen,
		TextDocumentDidClose:           sysyHandler.TextDocumentDidClose,
		TextDocumentDidChange:          sysyHandler.TextDocumentDidChange,
		TextDocumentCompletion:         sysyHandler.TextDocumentCompletion,
		TextDocumentSemanticTokensFull: sysyHandler.TextDocumentSemanticTokensFull,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Infof("starting %s language server %s", lsName, version)
	if err := s.RunStdio(); err != nil {
		log.Errorf("language server stopped: %s", err)
		os.Exit(1)
	}
}
