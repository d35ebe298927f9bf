/*
Package merkle implements a binary Merkle commitment scheme over
power-of-two sequences of elements.

A committer hashes each element into a leaf, folds neighboring leaves
pairwise into parents, and publishes the final digest as the root.
The root binds the whole sequence. Later the committer can open any
single position by handing out an authentication path: the sibling
digests met on the walk from that leaf to the root, innermost first.
A verifier holding only the root checks the element against the path
without seeing any other element.

Ordering

At each level the bit of the index chooses the concatenation order: an
even position is hashed as H(node||sibling), an odd one as
H(sibling||node). Leaves and interior nodes share the same hash with no
domain separation, so a root is only meaningful together with the
sequence length it was committed with.

Trees

Commit and Open recompute sibling subtrees on every call. A Tree keeps
every interior digest, answering Open without hashing, and can be
saved to any Persist (a directory, an S3 bucket, a LevelDB database)
under the base64 of its root, and loaded back with the root checked.
Two trees of the same size can be diffed by descending only into
subtrees whose digests differ.
*/
package merkle
