package manifest

import "testing"

func TestImage_Ref(t *testing.T) {
	img := Image{
		Registry:   "029272617770.dkr.ecr.us-west-2.amazonaws.com",
		Repository: "ci_base_images",
		TagPrefix:  "oss-ci-build",
		BuildID:    "f00dfeed",
	}

	want := "029272617770.dkr.ecr.us-west-2.amazonaws.com/ci_base_images:oss-ci-build_f00dfeed"
	if got := img.Ref(); got != want {
		t.Errorf("Ref() = %q, want %q", got, want)
	}
}

func TestImage_Tag_Deterministic(t *testing.T) {
	a := Image{Registry: "r", Repository: "repo", TagPrefix: "build", BuildID: "abc"}
	b := Image{Registry: "r", Repository: "repo", TagPrefix: "build", BuildID: "abc"}

	// The preparer and the group runner each compute the tag independently;
	// they must always agree.
	if a.Tag() != b.Tag() {
		t.Errorf("Tag() is not deterministic: %q vs %q", a.Tag(), b.Tag())
	}
	if a.Ref() != b.Ref() {
		t.Errorf("Ref() is not deterministic: %q vs %q", a.Ref(), b.Ref())
	}

	c := Image{Registry: "r", Repository: "repo", TagPrefix: "build", BuildID: "def"}
	if a.Tag() == c.Tag() {
		t.Error("Different build IDs must produce different tags")
	}
}
