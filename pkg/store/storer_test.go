package store_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mydocta/docta/pkg/chat"
	"github.com/mydocta/docta/pkg/store"
)

func sampleConversation() []chat.Message {
	user, _ := chat.NewUserMessage("I have a sore throat", "", "")
	reply, _ := chat.NewAssistantMessage("How long has it been sore?")
	return []chat.Message{user, reply}
}

// Shared behavior for every Storer implementation.
func describeStorer(name string, newStorer func() store.Storer) bool {
	return Describe(name, func() {
		var (
			storer store.Storer
			ctx    context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			storer = newStorer()
		})

		AfterEach(func() {
			if storer != nil {
				storer.Close()
			}
		})

		It("returns an empty conversation for an unknown slot", func() {
			msgs, err := storer.Load(ctx, store.DefaultSlot)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(BeEmpty())
		})

		It("saves and loads a conversation in order", func() {
			msgs := sampleConversation()

			Expect(storer.Save(ctx, store.DefaultSlot, msgs)).To(Succeed())

			loaded, err := storer.Load(ctx, store.DefaultSlot)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(2))
			Expect(loaded[0].ID).To(Equal(msgs[0].ID))
			Expect(loaded[0].Text).To(Equal("I have a sore throat"))
			Expect(loaded[1].Sender).To(Equal(chat.SenderAssistant))
		})

		It("overwrites the slot on every save", func() {
			Expect(storer.Save(ctx, store.DefaultSlot, sampleConversation())).To(Succeed())

			replacement, _ := chat.NewUserMessage("actually never mind", "", "")
			Expect(storer.Save(ctx, store.DefaultSlot, []chat.Message{replacement})).To(Succeed())

			loaded, err := storer.Load(ctx, store.DefaultSlot)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(1))
			Expect(loaded[0].Text).To(Equal("actually never mind"))
		})

		It("keeps slots independent", func() {
			Expect(storer.Save(ctx, "slot-a", sampleConversation())).To(Succeed())
			Expect(storer.Save(ctx, "slot-b", nil)).To(Succeed())

			loaded, err := storer.Load(ctx, "slot-a")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(2))

			loaded, err = storer.Load(ctx, "slot-b")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeEmpty())
		})

		It("clears a slot entirely", func() {
			Expect(storer.Save(ctx, store.DefaultSlot, sampleConversation())).To(Succeed())
			Expect(storer.Clear(ctx, store.DefaultSlot)).To(Succeed())

			loaded, err := storer.Load(ctx, store.DefaultSlot)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeEmpty())
		})

		It("clearing an unknown slot is not an error", func() {
			Expect(storer.Clear(ctx, "never-saved")).To(Succeed())
		})

		It("round-trips media payloads", func() {
			msg, err := chat.NewUserMessage("", "data:image/png;base64,iVBORw0K", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(storer.Save(ctx, store.DefaultSlot, []chat.Message{msg})).To(Succeed())

			loaded, err := storer.Load(ctx, store.DefaultSlot)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(HaveLen(1))
			Expect(loaded[0].ImageData).To(Equal("data:image/png;base64,iVBORw0K"))
		})
	})
}

var _ = describeStorer("MemoryStorer", func() store.Storer {
	return store.NewMemoryStorer()
})

var _ = describeStorer("SQLiteStorer", func() store.Storer {
	s, err := store.NewSQLiteStorer(":memory:")
	Expect(err).NotTo(HaveOccurred())
	return s
})

var _ = Describe("SQLiteStorer file database", func() {
	It("creates the database file and persists across reopen", func() {
		tmpDir := GinkgoT().TempDir()
		dbPath := filepath.Join(tmpDir, "docta.db")

		s, err := store.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Save(context.Background(), store.DefaultSlot, sampleConversation())).To(Succeed())
		Expect(s.Close()).To(Succeed())

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())

		reopened, err := store.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()

		loaded, err := reopened.Load(context.Background(), store.DefaultSlot)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(HaveLen(2))
	})
})
