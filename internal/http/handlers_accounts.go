package http

import (
	"net/http"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, "load accounts", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toAccountResponses(accounts))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	acct, err := s.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, "load account", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toAccountResponse(acct))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	acct, err := s.ledger.CreateAccount(r.Context(), in)
	if err != nil {
		writeError(w, r, "create account", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toAccountResponse(acct))
}

// handleUpdateAccount is a full edit: name, type and balance are replaced.
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	acct, err := s.ledger.UpdateAccount(r.Context(), id, in)
	if err != nil {
		writeError(w, r, "update account", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toAccountResponse(acct))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.ledger.DeleteAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, "delete account", err)
		return
	}

	ids := make([]string, len(res.TransactionIDs))
	for i, txID := range res.TransactionIDs {
		ids[i] = formatID(txID)
	}
	writeJSON(w, r, http.StatusOK, deleteAccountResponse{
		AccountID:      formatID(res.AccountID),
		TransactionIDs: ids,
	})
}
