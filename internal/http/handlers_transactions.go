package http

import (
	"encoding/json"
	"net/http"

	"fiscus/internal/core"
	"fiscus/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.ListTransactions(r.Context())
	if err != nil {
		writeError(w, r, "load transactions", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTransactionResponses(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, "load transaction", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, clientMessage(err))
		return
	}

	res, err := s.ledger.CreateTransaction(r.Context(), in)
	if err != nil {
		writeError(w, r, "create transaction", err)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentLedger).InfoContext(r.Context(), "Transaction created",
		log.NewFields().
			WithTransaction(res.Transaction.ID, string(res.Transaction.Type), res.Transaction.Amount, res.Transaction.AccountID).
			WithOperation(log.OpCreate).
			ToSlice()...)

	writeJSON(w, r, http.StatusOK, createTransactionResponse{
		Transaction: toTransactionResponse(res.Transaction),
		Account:     toAccountResponsePtr(res.Account),
	})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, clientMessage(err))
		return
	}

	res, err := s.ledger.UpdateTransaction(r.Context(), id, in)
	if err != nil {
		writeError(w, r, "update transaction", err)
		return
	}
	writeJSON(w, r, http.StatusOK, updateTransactionResponse{
		Transaction: toTransactionResponse(res.Transaction),
		Accounts:    toAccountResponses(res.Accounts),
	})
}

// handleDeleteTransaction always answers 200; account is null when the
// transaction had no account or did not exist.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	acct, err := s.ledger.DeleteTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, "delete transaction", err)
		return
	}
	writeJSON(w, r, http.StatusOK, deleteTransactionResponse{Account: toAccountResponsePtr(acct)})
}

// handleImportTransactions books a batch captured offline. Items that fail
// to parse are reported alongside ledger failures; neither stops the batch.
func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request) {
	var items []json.RawMessage
	if err := decodeJSON(w, r, &items); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	results := make([]importItemResponse, len(items))
	inputs := make([]core.TransactionInput, 0, len(items))
	positions := make([]int, 0, len(items))
	for i, raw := range items {
		results[i].Index = i
		var req transactionRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			results[i].Error = errInvalidBody.Error()
			continue
		}
		in, err := req.toInput()
		if err != nil {
			results[i].Error = clientMessage(err)
			continue
		}
		inputs = append(inputs, in)
		positions = append(positions, i)
	}

	for _, res := range s.ledger.ImportPending(r.Context(), inputs) {
		i := positions[res.Index]
		if res.Err != nil {
			if statusFor(res.Err) == http.StatusInternalServerError {
				results[i].Error = "Failed to create transaction"
			} else {
				results[i].Error = clientMessage(res.Err)
			}
			continue
		}
		tx := toTransactionResponse(res.Result.Transaction)
		results[i].Transaction = &tx
		results[i].Account = toAccountResponsePtr(res.Result.Account)
	}

	resp := importResponse{Results: results}
	for _, res := range results {
		if res.Error != "" {
			resp.Failed++
		} else {
			resp.Imported++
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}
