package loader_test

import (
	"context"
	"errors"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/concepts/pkg/metamodel"
	"github.com/mandelsoft/concepts/pkg/model"
	"github.com/mandelsoft/concepts/pkg/model/loader"
	"github.com/mandelsoft/concepts/pkg/testutils"
)

const baseDoc = `
class: ModelFile
namespace: org.example.base
declarations:
- class: AssetDeclaration
  name: Resource
  isAbstract: true
  identifiedByField: id
  fields:
  - class: StringFieldDeclaration
    name: id
`

const midDoc = `
class: ModelFile
namespace: org.example.mid
imports:
- class: NamespaceImport
  namespace: org.example.base
  uri: /models/base.yaml
declarations:
- class: AssetDeclaration
  name: Thing
  superType:
    class: TypeIdentifier
    name: Resource
    namespace: org.example.base
`

const topDoc = `
class: ModelFile
namespace: org.example.top
imports:
- class: NamespaceImport
  namespace: org.example.mid
  uri: /models/mid.yaml
declarations:
- class: ConceptDeclaration
  name: Holder
  fields:
  - class: ObjectFieldDeclaration
    name: thing
    type:
      class: TypeIdentifier
      name: Thing
      namespace: org.example.mid
`

var _ = Describe("External Model Loading Test Environment", func() {
	var fs vfs.FileSystem
	var mgr *model.ModelManager
	var ctx context.Context

	BeforeEach(func() {
		var err error
		fs, err = testutils.ModelFileSystem(map[string]string{
			"/models/base.yaml": baseDoc,
			"/models/mid.yaml":  midDoc,
		})
		Expect(err).To(Succeed())

		ctx = context.Background()
		mgr = model.NewModelManager()
		top, err := metamodel.Decode([]byte(topDoc))
		Expect(err).To(Succeed())
		Expect(mgr.AddMetaModel(top)).To(Succeed())
	})

	It("loads a canonical document from the file system", func() {
		data, err := loader.New(fs).Load(ctx, metamodel.Import{
			Namespace: "org.example.base",
			URI:       "/models/base.yaml",
		})
		Expect(err).To(Succeed())

		mm, err := metamodel.Decode(data)
		Expect(err).To(Succeed())
		Expect(mm.Namespace).To(Equal("org.example.base"))
	})

	It("substitutes environment variables in the uri", func() {
		os.Setenv("MODEL_HOME", "/models")
		DeferCleanup(os.Unsetenv, "MODEL_HOME")

		data, err := loader.New(fs).Load(ctx, metamodel.Import{
			Namespace: "org.example.base",
			URI:       "${MODEL_HOME}/base.yaml",
		})
		Expect(err).To(Succeed())
		Expect(data).NotTo(BeEmpty())
	})

	It("refuses imports without a resolution uri", func() {
		_, err := loader.New(fs).Load(ctx, metamodel.Import{Namespace: "org.example.base"})
		Expect(err).To(MatchError(ContainSubstring("carries no resolution uri")))
	})

	It("honors context cancellation", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := loader.New(fs).Load(canceled, metamodel.Import{
			Namespace: "org.example.base",
			URI:       "/models/base.yaml",
		})
		Expect(err).To(MatchError(context.Canceled))
	})

	Context("fetching a model set", func() {
		It("resolves imports transitively", func() {
			Expect(mgr.FetchExternal(ctx, loader.New(fs))).To(Succeed())
			Expect(mgr.Namespaces()).To(Equal([]string{
				"org.example.top", "org.example.mid", "org.example.base",
			}))
			Expect(mgr.Validate()).To(Succeed())

			thing, err := mgr.LookupType("org.example.mid.Thing")
			Expect(err).To(Succeed())
			Expect(thing.InstanceOf("org.example.base.Resource")).To(BeTrue())
		})

		It("reports missing documents without affecting other imports", func() {
			Expect(fs.Remove("/models/base.yaml")).To(Succeed())

			err := mgr.FetchExternal(ctx, loader.New(fs))
			Expect(err).To(HaveOccurred())

			var ire *model.ImportResolutionError
			Expect(errors.As(err, &ire)).To(BeTrue())
			Expect(ire.Namespace).To(Equal("org.example.base"))

			// the resolvable import was still loaded
			Expect(mgr.ModelFile("org.example.mid")).NotTo(BeNil())
			// but validation requires the complete closure
			Expect(mgr.Validate()).To(MatchError(ContainSubstring("is not loaded")))
		})

		It("rejects documents declaring a different namespace", func() {
			fs, err := testutils.ModelFileSystem(map[string]string{
				"/models/mid.yaml": baseDoc, // wrong document behind the uri
			})
			Expect(err).To(Succeed())

			err = mgr.FetchExternal(ctx, loader.New(fs))
			Expect(err).To(MatchError(ContainSubstring(`document declares namespace "org.example.base"`)))
		})
	})
})
